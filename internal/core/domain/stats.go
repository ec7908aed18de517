package domain

type GlobalStats struct {
	GoalsCompletionRate int `json:"goals_completion_rate"`
	TotalGoals          int `json:"total_goals"`
	CompletedGoals      int `json:"completed_goals"`
	HabitsTracked       int `json:"habits_tracked"`
	HabitLogs           int `json:"habit_logs"`
}

type GoalCategoryStat struct {
	Category string `json:"category" db:"category"`
	Status   string `json:"status" db:"status"`
	Count    int    `json:"count" db:"count"`
}

type PerHabitStat struct {
	HabitID   string `json:"habit_id" db:"habit_id"`
	Name      string `json:"name" db:"name"`
	TotalLogs int    `json:"total_logs" db:"total_logs"`
	Frequency string `json:"frequency" db:"frequency"`
}

type Dashboard struct {
	Goals struct {
		Total     int `json:"total"`
		Completed int `json:"completed"`
		Active    int `json:"active"`
	} `json:"goals"`
	Habits struct {
		Active int `json:"active"`
		Logs   int `json:"logs"`
	} `json:"habits"`
}

type UserXP struct {
	XP          int    `json:"xp"`
	Level       int    `json:"level"`
	Title       string `json:"title"`
	NextLevelXP *int   `json:"next_level_xp"`
}

// GoalFilter narrows a goal listing. Empty fields match everything.
type GoalFilter struct {
	Status     string
	Priority   string
	ByDeadline bool
}
