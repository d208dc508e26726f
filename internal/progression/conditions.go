package progression

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Built-in condition kinds.
const (
	KindAlways         = "always"
	KindLevelReached   = "level_reached"
	KindGoalsCompleted = "goals_completed"
	KindListsCompleted = "lists_completed"
	KindCommentsPosted = "comments_posted"
	KindCategoryCount  = "category_count"
	// KindManual never holds; such achievements are only granted by admins.
	KindManual         = "manual"
)

// ErrUnknownCondition is returned for a condition kind nobody registered.
var ErrUnknownCondition = errors.New("unknown achievement condition")

// Snapshot is the aggregate state of a user that conditions are checked
// against.
type Snapshot struct {
	UserID         uint
	Experience     int
	Level          int
	GoalsCompleted int64
	ListsCompleted int64
	CommentsPosted int64
	// CompletedByCategory counts completed goals per category id.
	CompletedByCategory map[uint]int64
}

// Condition is the decoded form of an achievement's condition column.
type Condition struct {
	Kind       string `json:"kind"`
	Value      int64  `json:"value,omitempty"`
	CategoryID uint   `json:"category_id,omitempty"`
}

// ParseCondition decodes raw. Empty input, JSON null and an empty object all
// decode to the always-true condition.
func ParseCondition(raw []byte) (Condition, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return Condition{Kind: KindAlways}, nil
	}
	var c Condition
	if err := json.Unmarshal([]byte(trimmed), &c); err != nil {
		return Condition{}, fmt.Errorf("decode condition: %w", err)
	}
	if c.Kind == "" {
		c.Kind = KindAlways
	}
	return c, nil
}

// Predicate decides whether a condition holds for a snapshot.
type Predicate func(c Condition, s Snapshot) bool

// ConditionRegistry maps condition kinds to predicates.
type ConditionRegistry struct {
	predicates map[string]Predicate
}

// NewConditionRegistry returns a registry holding the built-in kinds.
func NewConditionRegistry() *ConditionRegistry {
	r := &ConditionRegistry{predicates: make(map[string]Predicate)}
	r.Register(KindAlways, func(Condition, Snapshot) bool { return true })
	r.Register(KindManual, func(Condition, Snapshot) bool { return false })
	r.Register(KindLevelReached, func(c Condition, s Snapshot) bool {
		return int64(s.Level) >= c.Value
	})
	r.Register(KindGoalsCompleted, func(c Condition, s Snapshot) bool {
		return s.GoalsCompleted >= c.Value
	})
	r.Register(KindListsCompleted, func(c Condition, s Snapshot) bool {
		return s.ListsCompleted >= c.Value
	})
	r.Register(KindCommentsPosted, func(c Condition, s Snapshot) bool {
		return s.CommentsPosted >= c.Value
	})
	r.Register(KindCategoryCount, func(c Condition, s Snapshot) bool {
		return s.CompletedByCategory[c.CategoryID] >= c.Value
	})
	return r
}

// Register installs or replaces the predicate for kind.
func (r *ConditionRegistry) Register(kind string, p Predicate) {
	r.predicates[kind] = p
}

// Evaluate decodes raw and runs the matching predicate.
func (r *ConditionRegistry) Evaluate(raw []byte, s Snapshot) (bool, error) {
	c, err := ParseCondition(raw)
	if err != nil {
		return false, err
	}
	p, ok := r.predicates[c.Kind]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownCondition, c.Kind)
	}
	return p(c, s), nil
}
