package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrHabitNotFound       = fmt.Errorf("habit %w", ErrNotFound)
	ErrHabitNameEmpty      = fmt.Errorf("%w: habit name cannot be empty", ErrInvalidInput)
	ErrHabitNameTooLong    = fmt.Errorf("%w: habit name is too long (max 100 chars)", ErrInvalidInput)
	ErrHabitDescTooLong    = fmt.Errorf("%w: habit description is too long (max 500 chars)", ErrInvalidInput)
	ErrHabitInvalidUserID  = fmt.Errorf("%w: invalid user id", ErrInvalidInput)
	ErrInvalidFrequency    = fmt.Errorf("%w: invalid frequency (must be daily or weekly)", ErrInvalidInput)
	ErrInvalidWeeklyTarget = fmt.Errorf("%w: weekly_target must be between 1 and 7 for weekly habits", ErrInvalidInput)
	ErrHabitArchived       = fmt.Errorf("%w: habit is archived", ErrConflict)
)

const (
	HabitFreqDaily  = "daily"
	HabitFreqWeekly = "weekly"
	MaxNameLen      = 100
	MaxDescLen      = 500
)

type Habit struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description,omitempty" db:"description"`
	Frequency    string    `json:"frequency" db:"frequency"`
	WeeklyTarget *int      `json:"weekly_target,omitempty" db:"weekly_target"`
	IsArchived   bool      `json:"is_archived" db:"is_archived"`
	StartDate    time.Time `json:"start_date" db:"start_date"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func validateHabit(name, desc, frequency string, weeklyTarget *int) (string, *int, error) {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return "", nil, ErrHabitNameEmpty
	}
	if len(trimmedName) > MaxNameLen {
		return "", nil, ErrHabitNameTooLong
	}

	if len(desc) > MaxDescLen {
		return "", nil, ErrHabitDescTooLong
	}

	freq := frequency
	if freq == "" {
		freq = HabitFreqDaily
	}

	switch freq {
	case HabitFreqDaily:
		// a daily habit has no weekly target; drop whatever the client sent
		return freq, nil, nil
	case HabitFreqWeekly:
		if weeklyTarget == nil || *weeklyTarget < 1 || *weeklyTarget > 7 {
			return "", nil, ErrInvalidWeeklyTarget
		}
		target := *weeklyTarget
		return freq, &target, nil
	default:
		return "", nil, ErrInvalidFrequency
	}
}

// NewHabit builds a validated habit. A zero startDate means "today" in the
// caller's zone; the caller passes it already truncated with Day.
func NewHabit(userID, name, description, frequency string, weeklyTarget *int, startDate time.Time) (*Habit, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrHabitInvalidUserID
	}

	cleanDesc := strings.TrimSpace(description)

	freq, target, err := validateHabit(name, cleanDesc, frequency, weeklyTarget)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if startDate.IsZero() {
		startDate = Day(now, time.UTC)
	}

	return &Habit{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         strings.TrimSpace(name),
		Description:  cleanDesc,
		Frequency:    freq,
		WeeklyTarget: target,
		StartDate:    startDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (h *Habit) Update(name, description, frequency string, weeklyTarget *int) error {
	if h.IsArchived {
		return ErrHabitArchived
	}

	cleanDesc := strings.TrimSpace(description)

	freq, target, err := validateHabit(name, cleanDesc, frequency, weeklyTarget)
	if err != nil {
		return err
	}

	h.Name = strings.TrimSpace(name)
	h.Description = cleanDesc
	h.Frequency = freq
	h.WeeklyTarget = target
	h.UpdatedAt = time.Now().UTC()

	return nil
}

// Archive soft-deletes the habit. Its logs are kept.
func (h *Habit) Archive() {
	if h.IsArchived {
		return
	}

	h.IsArchived = true
	h.UpdatedAt = time.Now().UTC()
}
