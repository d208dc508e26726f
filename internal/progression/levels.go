// Package progression holds the pure rules of experience, levels and
// achievement conditions. Nothing in here touches storage.
package progression

// threshold is the minimum experience needed for a level.
type threshold struct {
	Level      int
	Experience int
}

// levelTable is ascending in both Level and Experience and starts at (1, 0).
var levelTable = []threshold{
	{Level: 1, Experience: 0},
	{Level: 2, Experience: 100},
	{Level: 3, Experience: 250},
	{Level: 4, Experience: 500},
	{Level: 5, Experience: 1000},
	{Level: 6, Experience: 2000},
	{Level: 7, Experience: 3500},
	{Level: 8, Experience: 5500},
	{Level: 9, Experience: 8000},
	{Level: 10, Experience: 11000},
}

// MaxLevel is the highest level defined by the table.
var MaxLevel = levelTable[len(levelTable)-1].Level

// LevelFor returns the highest level whose threshold is <= experience.
// Negative experience is reported as level 1.
func LevelFor(experience int) int {
	level := levelTable[0].Level
	for _, t := range levelTable {
		if experience < t.Experience {
			break
		}
		level = t.Level
	}
	return level
}

// ExperienceToNextLevel returns how much experience is missing to reach the
// next level, or 0 at MaxLevel.
func ExperienceToNextLevel(experience int) int {
	level := LevelFor(experience)
	if level >= MaxLevel {
		return 0
	}
	for _, t := range levelTable {
		if t.Level == level+1 {
			return t.Experience - experience
		}
	}
	return 0
}
