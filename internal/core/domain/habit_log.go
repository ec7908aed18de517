package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrHabitLogNotFound = fmt.Errorf("habit log %w", ErrNotFound)
	ErrAlreadyLogged    = fmt.Errorf("%w: habit already logged for this day", ErrConflict)
	ErrFutureLog        = fmt.Errorf("%w: cannot log a habit in the future", ErrInvalidInput)
	ErrLogBeforeStart   = fmt.Errorf("%w: cannot log a habit before its start date", ErrInvalidInput)
	ErrNotesTooLong     = fmt.Errorf("%w: notes are too long (max 500 chars)", ErrInvalidInput)
)

// HabitLog records that a habit was performed on a calendar day.
// Date is the civil day encoded as midnight UTC.
type HabitLog struct {
	ID        string    `json:"id" db:"id"`
	HabitID   string    `json:"habit_id" db:"habit_id"`
	Date      time.Time `json:"date" db:"date"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func NewHabitLog(habitID string, day time.Time, notes string) (*HabitLog, error) {
	if strings.TrimSpace(habitID) == "" {
		return nil, fmt.Errorf("%w: habit_id is required", ErrInvalidInput)
	}
	if day.IsZero() {
		return nil, ErrInvalidDate
	}

	cleanNotes := strings.TrimSpace(notes)
	if len(cleanNotes) > MaxDescLen {
		return nil, ErrNotesTooLong
	}

	return &HabitLog{
		ID:        uuid.NewString(),
		HabitID:   habitID,
		Date:      Day(day, time.UTC),
		Notes:     cleanNotes,
		CreatedAt: time.Now().UTC(),
	}, nil
}
