package domain

import (
	"context"
	"time"
)

type UserRepository interface {
	Create(ctx context.Context, user *User) error

	GetByEmail(ctx context.Context, email string) (*User, error)

	GetByID(ctx context.Context, id string) (*User, error)

	// IncrementXP atomically adds amount to the user's xp and returns the new
	// total together with the cached level as stored at that moment.
	IncrementXP(ctx context.Context, userID string, amount int) (xp int, level int, err error)

	// SetLevel writes the cached level only while the stored xp still equals
	// expectedXP. It reports whether the row was updated.
	SetLevel(ctx context.Context, userID string, level, expectedXP int) (bool, error)

	// ListLevelStates returns xp and cached level of every user.
	ListLevelStates(ctx context.Context) ([]LevelState, error)
}

type HabitRepository interface {
	// Create persists a new habit definition in the storage.
	Create(ctx context.Context, habit *Habit) error

	// GetByID retrieves a habit by its unique identifier, archived or not.
	GetByID(ctx context.Context, id string) (*Habit, error)

	// ListByUserID retrieves the user's habits. Archived habits are only
	// included when includeArchived is set.
	ListByUserID(ctx context.Context, userID string, includeArchived bool) ([]*Habit, error)

	// Update modifies the state of an existing habit, including archiving.
	Update(ctx context.Context, habit *Habit) error
}

type HabitLogRepository interface {
	// Create persists a log. A second log for the same (habit, date) fails
	// with ErrAlreadyLogged.
	Create(ctx context.Context, log *HabitLog) error

	// ListByHabitID returns the habit's logs ordered by date, newest first.
	// Nil bounds are open.
	ListByHabitID(ctx context.Context, habitID string, from, to *time.Time) ([]*HabitLog, error)

	// DeleteByDate removes the log of the given civil day.
	DeleteByDate(ctx context.Context, habitID string, day time.Time) error
}

type GoalRepository interface {
	// Create persists the goal together with its steps.
	Create(ctx context.Context, goal *Goal) error

	// GetByID loads a goal and its steps ordered by step order.
	GetByID(ctx context.Context, id string) (*Goal, error)

	List(ctx context.Context, userID string, filter GoalFilter) ([]*Goal, error)

	// Update writes the goal fields; when withSteps is set the stored steps
	// are replaced by goal.Steps in the same transaction.
	Update(ctx context.Context, goal *Goal, withSteps bool) error

	// TransitionStatus moves an active goal to status. A goal that is no
	// longer active fails with ErrGoalClosed, so each transition happens once.
	TransitionStatus(ctx context.Context, id string, status string) error

	// Delete removes the goal and its steps.
	Delete(ctx context.Context, id string) error
}

type StepRepository interface {
	Create(ctx context.Context, step *Step) error

	GetByID(ctx context.Context, id string) (*Step, error)

	Update(ctx context.Context, step *Step) error

	// Complete flips an open step to completed. It reports false when the
	// step was already completed.
	Complete(ctx context.Context, id string, at time.Time) (bool, error)

	Delete(ctx context.Context, id string) error
}

type BadgeRepository interface {
	// GetByCode fails with ErrBadgeNotFound for codes missing from the catalog.
	GetByCode(ctx context.Context, code string) (*Badge, error)

	List(ctx context.Context) ([]Badge, error)

	// Upsert inserts or refreshes catalog entries keyed by code.
	Upsert(ctx context.Context, badges []Badge) error

	// CreateUserBadge inserts the (user, badge) pair unless it exists. It
	// reports whether this call created the row.
	CreateUserBadge(ctx context.Context, userID, badgeID string) (bool, error)

	ListUserBadges(ctx context.Context, userID string) ([]UserBadge, error)
}

type MilestoneRepository interface {
	// ClaimStreakMilestone records that the streak run of habitID starting on
	// runStart reached milestone. It reports false when already claimed.
	ClaimStreakMilestone(ctx context.Context, habitID string, milestone int, runStart time.Time) (bool, error)
}

type StatsRepository interface {
	// CountGoals counts the user's goals; an empty status counts all of them.
	CountGoals(ctx context.Context, userID string, status string) (int, error)

	CountHabits(ctx context.Context, userID string, activeOnly bool) (int, error)

	CountHabitLogs(ctx context.Context, userID string) (int, error)

	GoalStatsByCategory(ctx context.Context, userID string) ([]GoalCategoryStat, error)

	// PerHabitStats lists active habits with their total log count.
	PerHabitStats(ctx context.Context, userID string) ([]PerHabitStat, error)
}
