package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageExtension(t *testing.T) {
	ext, ok := ImageExtension("image/PNG; charset=binary")
	assert.True(t, ok)
	assert.Equal(t, ".png", ext)

	_, ok = ImageExtension("application/pdf")
	assert.False(t, ok)
}

func TestUploadToMemory(t *testing.T) {
	mem := NewMemoryStorage("https://cdn.test/")
	ctx := context.Background()

	key, url, err := Upload(ctx, mem, "avatars", "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "avatars/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.Equal(t, "https://cdn.test/"+key, url)
	assert.Equal(t, key, KeyFromURL(mem, url))
	assert.Equal(t, "", KeyFromURL(mem, "https://elsewhere/x.jpg"))

	data, ok := mem.Get(key)
	require.True(t, ok)
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, mem.Delete(ctx, key))
	assert.Equal(t, 0, mem.Len())
}

func TestUploadRejectsNonImages(t *testing.T) {
	_, _, err := Upload(context.Background(), NewMemoryStorage(""), "photos", "text/html", strings.NewReader("<p>"))
	assert.Error(t, err)
}

// fakeS3 answers the handful of path-style S3 calls the storage makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	methods []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods = append(f.methods, r.Method+" "+r.URL.Path)

	switch r.Method {
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3StorageAgainstCompatibleEndpoint(t *testing.T) {
	fake := &fakeS3{objects: make(map[string][]byte)}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	st, err := NewS3Storage(ctx, S3Config{
		Region:    "us-east-1",
		Bucket:    "bucket-list",
		AccessKey: "test",
		SecretKey: "test",
		Endpoint:  srv.URL,
	})
	require.NoError(t, err)

	require.NoError(t, st.Save(ctx, "covers/a.png", bytes.NewReader([]byte("png")), "image/png"))
	assert.Equal(t, srv.URL+"/bucket-list/covers/a.png", st.URL("covers/a.png"))

	fake.mu.Lock()
	stored := fake.objects["/bucket-list/covers/a.png"]
	fake.mu.Unlock()
	assert.NotEmpty(t, stored)

	require.NoError(t, st.Delete(ctx, "covers/a.png"))
	fake.mu.Lock()
	_, still := fake.objects["/bucket-list/covers/a.png"]
	fake.mu.Unlock()
	assert.False(t, still)
}
