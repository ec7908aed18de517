package domain

const (
	EventGoalCreated   = "goal_created"
	EventGoalCompleted = "goal_completed"
	EventHabitCreated  = "habit_created"
	EventHabitLogged   = "habit_logged"
	EventStepCompleted = "step_completed"
)

// XPChange is the outcome of a single ledger increment.
type XPChange struct {
	UserID        string
	Amount        int
	PreviousXP    int
	XP            int
	PreviousLevel int
	Level         int
}

func (c XPChange) LeveledUp() bool {
	return c.Level > c.PreviousLevel
}

// Reward summarizes what a domain event earned. Warning is set when the
// gamification side effects failed; the triggering action still succeeded.
type Reward struct {
	Event          string   `json:"event"`
	XPAwarded      int      `json:"xp_awarded"`
	LevelBefore    int      `json:"level_before,omitempty"`
	Level          int      `json:"level,omitempty"`
	LeveledUp      bool     `json:"leveled_up"`
	BadgesUnlocked []string `json:"badges_unlocked,omitempty"`
	Streak         *int     `json:"streak,omitempty"`
	Deferred       bool     `json:"deferred,omitempty"`
	Warning        string   `json:"warning,omitempty"`
}

func NewReward(event string) *Reward {
	return &Reward{Event: event}
}

func (r *Reward) AddXP(c *XPChange) {
	if c == nil {
		return
	}
	if r.XPAwarded == 0 {
		r.LevelBefore = c.PreviousLevel
	}
	r.XPAwarded += c.Amount
	r.Level = c.Level
	if c.LeveledUp() {
		r.LeveledUp = true
	}
}

func (r *Reward) AddBadge(code string) {
	r.BadgesUnlocked = append(r.BadgesUnlocked, code)
}
