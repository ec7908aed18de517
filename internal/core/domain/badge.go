package domain

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BadgeFirstGoal      = "first_goal"
	BadgeComplete5Goals = "complete_5_goals"
	BadgeCreate3Habits  = "create_3_habits"
	BadgeStreak7        = "streak_7"
	BadgeStreak30       = "streak_30"
)

var ErrBadgeNotFound = fmt.Errorf("badge %w", ErrNotFound)

type Badge struct {
	ID          string `json:"id" db:"id" yaml:"-"`
	Code        string `json:"code" db:"code" yaml:"code"`
	Name        string `json:"name" db:"name" yaml:"name"`
	Description string `json:"description" db:"description" yaml:"description"`
	Icon        string `json:"icon" db:"icon" yaml:"icon"`
}

type UserBadge struct {
	UserID     string    `json:"user_id" db:"user_id"`
	BadgeID    string    `json:"badge_id" db:"badge_id"`
	Code       string    `json:"code" db:"code"`
	Name       string    `json:"name" db:"name"`
	Icon       string    `json:"icon" db:"icon"`
	UnlockedAt time.Time `json:"unlocked_at" db:"unlocked_at"`
}

//go:embed badges.yaml
var defaultCatalog []byte

type badgeCatalog struct {
	Badges []Badge `yaml:"badges"`
}

// ParseBadgeCatalog decodes a YAML badge catalog. Codes must be unique.
func ParseBadgeCatalog(data []byte) ([]Badge, error) {
	var c badgeCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("badge catalog: %w", err)
	}

	seen := make(map[string]bool, len(c.Badges))
	for i := range c.Badges {
		b := &c.Badges[i]
		b.Code = strings.TrimSpace(b.Code)
		if b.Code == "" {
			return nil, fmt.Errorf("badge catalog: entry %d has no code", i)
		}
		if seen[b.Code] {
			return nil, fmt.Errorf("badge catalog: duplicate code %q", b.Code)
		}
		seen[b.Code] = true
	}

	return c.Badges, nil
}

// DefaultBadges returns the catalog shipped with the binary.
func DefaultBadges() []Badge {
	badges, err := ParseBadgeCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return badges
}
