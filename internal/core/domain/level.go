package domain

import (
	"errors"
	"fmt"
)

type Level struct {
	Level int    `json:"level" yaml:"level"`
	Title string `json:"title" yaml:"title"`
	MinXP int    `json:"min_xp" yaml:"min_xp"`
}

// LevelTable is an ordered list of levels with strictly increasing MinXP.
type LevelTable struct {
	levels []Level
}

var DefaultLevels = []Level{
	{Level: 1, Title: "Beginner", MinXP: 0},
	{Level: 2, Title: "Motivated", MinXP: 100},
	{Level: 3, Title: "Disciplined", MinXP: 300},
	{Level: 4, Title: "Expert", MinXP: 600},
	{Level: 5, Title: "Master", MinXP: 1000},
}

func NewLevelTable(levels []Level) (*LevelTable, error) {
	if len(levels) == 0 {
		return nil, errors.New("level table: at least one level is required")
	}
	if levels[0].MinXP != 0 {
		return nil, errors.New("level table: first level must start at 0 xp")
	}

	for i, l := range levels {
		if l.Level != i+1 {
			return nil, fmt.Errorf("level table: entry %d has level %d, want %d", i, l.Level, i+1)
		}
		if i > 0 && l.MinXP <= levels[i-1].MinXP {
			return nil, fmt.Errorf("level table: min_xp of level %d must be greater than %d", l.Level, levels[i-1].MinXP)
		}
	}

	cp := make([]Level, len(levels))
	copy(cp, levels)
	return &LevelTable{levels: cp}, nil
}

// DefaultLevelTable panics only if DefaultLevels is edited into an invalid table.
func DefaultLevelTable() *LevelTable {
	t, err := NewLevelTable(DefaultLevels)
	if err != nil {
		panic(err)
	}
	return t
}

// LevelFor returns the highest level whose MinXP is <= xp. XP beyond the last
// threshold stays pinned at the last level.
func (t *LevelTable) LevelFor(xp int) Level {
	current := t.levels[0]
	for _, l := range t.levels {
		if xp >= l.MinXP {
			current = l
		}
	}
	return current
}

// NextThreshold returns the MinXP of level+1, or false at the max level.
func (t *LevelTable) NextThreshold(level int) (int, bool) {
	if level < 1 || level >= len(t.levels) {
		return 0, false
	}
	return t.levels[level].MinXP, true
}

func (t *LevelTable) Max() Level {
	return t.levels[len(t.levels)-1]
}

func (t *LevelTable) Levels() []Level {
	cp := make([]Level, len(t.levels))
	copy(cp, t.levels)
	return cp
}
