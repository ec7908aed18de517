package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrGoalNotFound       = fmt.Errorf("goal %w", ErrNotFound)
	ErrStepNotFound       = fmt.Errorf("step %w", ErrNotFound)
	ErrGoalTitleEmpty     = fmt.Errorf("%w: goal title cannot be empty", ErrInvalidInput)
	ErrGoalTitleTooLong   = fmt.Errorf("%w: goal title is too long (max 100 chars)", ErrInvalidInput)
	ErrStepTitleEmpty     = fmt.Errorf("%w: step title cannot be empty", ErrInvalidInput)
	ErrInvalidPriority    = fmt.Errorf("%w: invalid priority (must be low, medium or high)", ErrInvalidInput)
	ErrInvalidGoalStatus  = fmt.Errorf("%w: invalid goal status", ErrInvalidInput)
	ErrGoalClosed         = fmt.Errorf("%w: goal is already completed or abandoned", ErrConflict)
	ErrGoalInvalidUserID  = fmt.Errorf("%w: invalid user id", ErrInvalidInput)
	ErrStepAlreadyChecked = fmt.Errorf("%w: step is already completed", ErrConflict)
)

const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusAbandoned = "abandoned"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	DefaultCategory = "general"
)

type Goal struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description,omitempty" db:"description"`
	Category    string     `json:"category" db:"category"`
	Priority    string     `json:"priority" db:"priority"`
	Status      string     `json:"status" db:"status"`
	Deadline    *time.Time `json:"deadline,omitempty" db:"deadline"`
	Steps       []*Step    `json:"steps" db:"-"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type Step struct {
	ID          string     `json:"id" db:"id"`
	GoalID      string     `json:"goal_id" db:"goal_id"`
	Title       string     `json:"title" db:"title"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Order       int        `json:"order" db:"sort_order"`
	Deadline    *time.Time `json:"deadline,omitempty" db:"deadline"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// StepDraft is the caller-supplied part of a step.
type StepDraft struct {
	Title     string
	Order     int
	Deadline  *time.Time
	Completed bool
}

func IsValidGoalStatus(status string) bool {
	switch status {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusAbandoned:
		return true
	}
	return false
}

func IsValidPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func normalizeGoal(title, category, priority string) (string, string, string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", "", "", ErrGoalTitleEmpty
	}
	if len(t) > MaxNameLen {
		return "", "", "", ErrGoalTitleTooLong
	}

	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		c = DefaultCategory
	}

	p := strings.ToLower(strings.TrimSpace(priority))
	if p == "" {
		p = PriorityMedium
	}
	if !IsValidPriority(p) {
		return "", "", "", ErrInvalidPriority
	}

	return t, c, p, nil
}

func NewGoal(userID, title, description, category, priority string, deadline *time.Time, steps []StepDraft) (*Goal, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrGoalInvalidUserID
	}

	t, c, p, err := normalizeGoal(title, category, priority)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	g := &Goal{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       t,
		Description: strings.TrimSpace(description),
		Category:    c,
		Priority:    p,
		Status:      GoalStatusActive,
		Deadline:    deadline,
		Steps:       []*Step{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := g.ReplaceSteps(steps); err != nil {
		return nil, err
	}

	return g, nil
}

func (g *Goal) Update(title, description, category, priority string, deadline *time.Time) error {
	if g.IsClosed() {
		return ErrGoalClosed
	}

	t, c, p, err := normalizeGoal(title, category, priority)
	if err != nil {
		return err
	}

	g.Title = t
	g.Description = strings.TrimSpace(description)
	g.Category = c
	g.Priority = p
	g.Deadline = deadline
	g.UpdatedAt = time.Now().UTC()
	return nil
}

// ReplaceSteps rebuilds the step list from drafts, keeping the caller's order.
func (g *Goal) ReplaceSteps(drafts []StepDraft) error {
	steps := make([]*Step, 0, len(drafts))
	for _, d := range drafts {
		s, err := NewStep(g.ID, d.Title, d.Order, d.Deadline)
		if err != nil {
			return err
		}
		if d.Completed {
			s.MarkCompleted(g.UpdatedAt)
		}
		steps = append(steps, s)
	}
	g.Steps = steps
	return nil
}

// IsClosed reports whether the goal reached a terminal status.
func (g *Goal) IsClosed() bool {
	return g.Status == GoalStatusCompleted || g.Status == GoalStatusAbandoned
}

func (g *Goal) Complete() error {
	if g.IsClosed() {
		return ErrGoalClosed
	}
	g.Status = GoalStatusCompleted
	g.UpdatedAt = time.Now().UTC()
	return nil
}

func (g *Goal) Abandon() error {
	if g.IsClosed() {
		return ErrGoalClosed
	}
	g.Status = GoalStatusAbandoned
	g.UpdatedAt = time.Now().UTC()
	return nil
}

// Progress is the rounded percentage of completed steps, 0 without steps.
func (g *Goal) Progress() int {
	return StepProgress(g.Steps)
}

func StepProgress(steps []*Step) int {
	if len(steps) == 0 {
		return 0
	}
	done := 0
	for _, s := range steps {
		if s.IsCompleted {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(steps)) * 100))
}

func NewStep(goalID, title string, order int, deadline *time.Time) (*Step, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return nil, ErrStepTitleEmpty
	}
	if len(t) > MaxNameLen {
		return nil, fmt.Errorf("%w: step title is too long (max 100 chars)", ErrInvalidInput)
	}

	return &Step{
		ID:        uuid.NewString(),
		GoalID:    goalID,
		Title:     t,
		Order:     order,
		Deadline:  deadline,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *Step) MarkCompleted(at time.Time) {
	if s.IsCompleted {
		return
	}
	at = at.UTC()
	s.IsCompleted = true
	s.CompletedAt = &at
}
