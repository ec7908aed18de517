package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

type logKey struct {
	habitID string
	day     time.Time
}

type userBadgeKey struct {
	userID  string
	badgeID string
}

type milestoneKey struct {
	habitID   string
	milestone int
	runStart  time.Time
}

// InMemoryStore keeps every aggregate behind one lock so that cross-entity
// reads (stats, ownership checks) see a consistent snapshot. Values are copied
// on the way in and out.
type InMemoryStore struct {
	users      map[string]*domain.User
	habits     map[string]*domain.Habit
	logs       map[logKey]*domain.HabitLog
	goals      map[string]*domain.Goal
	steps      map[string]*domain.Step
	badges     map[string]*domain.Badge
	userBadges map[userBadgeKey]time.Time
	milestones map[milestoneKey]struct{}

	mu sync.RWMutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:      make(map[string]*domain.User),
		habits:     make(map[string]*domain.Habit),
		logs:       make(map[logKey]*domain.HabitLog),
		goals:      make(map[string]*domain.Goal),
		steps:      make(map[string]*domain.Step),
		badges:     make(map[string]*domain.Badge),
		userBadges: make(map[userBadgeKey]time.Time),
		milestones: make(map[milestoneKey]struct{}),
	}
}

func (s *InMemoryStore) Users() *InMemoryUserRepository {
	return &InMemoryUserRepository{s: s}
}

func (s *InMemoryStore) Habits() *InMemoryHabitRepository {
	return &InMemoryHabitRepository{s: s}
}

func (s *InMemoryStore) HabitLogs() *InMemoryHabitLogRepository {
	return &InMemoryHabitLogRepository{s: s}
}

func (s *InMemoryStore) Goals() *InMemoryGoalRepository {
	return &InMemoryGoalRepository{s: s}
}

func (s *InMemoryStore) Steps() *InMemoryStepRepository {
	return &InMemoryStepRepository{s: s}
}

func (s *InMemoryStore) Badges() *InMemoryBadgeRepository {
	return &InMemoryBadgeRepository{s: s}
}

func (s *InMemoryStore) Milestones() *InMemoryMilestoneRepository {
	return &InMemoryMilestoneRepository{s: s}
}

func (s *InMemoryStore) Stats() *InMemoryStatsRepository {
	return &InMemoryStatsRepository{s: s}
}

func copyHabit(h *domain.Habit) *domain.Habit {
	cp := *h
	if h.WeeklyTarget != nil {
		t := *h.WeeklyTarget
		cp.WeeklyTarget = &t
	}
	return &cp
}

func copyStep(st *domain.Step) *domain.Step {
	cp := *st
	return &cp
}

// goalWithSteps must be called with the lock held.
func (s *InMemoryStore) goalWithSteps(g *domain.Goal) *domain.Goal {
	cp := *g
	cp.Steps = []*domain.Step{}
	for _, st := range s.steps {
		if st.GoalID == g.ID {
			cp.Steps = append(cp.Steps, copyStep(st))
		}
	}
	sortSteps(cp.Steps)
	return &cp
}

func sortSteps(steps []*domain.Step) {
	sort.SliceStable(steps, func(i, j int) bool {
		if steps[i].Order != steps[j].Order {
			return steps[i].Order < steps[j].Order
		}
		return steps[i].CreatedAt.Before(steps[j].CreatedAt)
	})
}

type InMemoryUserRepository struct {
	s *InMemoryStore
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := strings.ToLower(user.Email)
	for _, u := range r.s.users {
		if u.Email == email {
			return domain.ErrEmailAlreadyExists
		}
	}

	cp := *user
	cp.Email = email
	r.s.users[user.ID] = &cp
	return nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *InMemoryUserRepository) IncrementXP(ctx context.Context, userID string, amount int) (int, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return 0, 0, domain.ErrUserNotFound
	}
	u.XP += amount
	u.UpdatedAt = time.Now().UTC()
	return u.XP, u.Level, nil
}

func (r *InMemoryUserRepository) SetLevel(ctx context.Context, userID string, level, expectedXP int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return false, domain.ErrUserNotFound
	}
	if u.XP != expectedXP {
		return false, nil
	}
	u.Level = level
	return true, nil
}

func (r *InMemoryUserRepository) ListLevelStates(ctx context.Context) ([]domain.LevelState, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	states := make([]domain.LevelState, 0, len(r.s.users))
	for _, u := range r.s.users {
		states = append(states, domain.LevelState{UserID: u.ID, XP: u.XP, Level: u.Level})
	}
	sort.Slice(states, func(i, j int) bool { return states[i].UserID < states[j].UserID })
	return states, nil
}

type InMemoryHabitRepository struct {
	s *InMemoryStore
}

func NewInMemoryHabitRepository() *InMemoryHabitRepository {
	return NewInMemoryStore().Habits()
}

func (r *InMemoryHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.habits[habit.ID] = copyHabit(habit)
	return nil
}

func (r *InMemoryHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	habit, ok := r.s.habits[id]
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	return copyHabit(habit), nil
}

func (r *InMemoryHabitRepository) ListByUserID(ctx context.Context, userID string, includeArchived bool) ([]*domain.Habit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	habits := []*domain.Habit{}
	for _, h := range r.s.habits {
		if h.UserID != userID {
			continue
		}
		if h.IsArchived && !includeArchived {
			continue
		}
		habits = append(habits, copyHabit(h))
	}

	sort.Slice(habits, func(i, j int) bool {
		return habits[i].CreatedAt.After(habits[j].CreatedAt)
	})

	return habits, nil
}

func (r *InMemoryHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.habits[habit.ID]; !ok {
		return domain.ErrHabitNotFound
	}

	r.s.habits[habit.ID] = copyHabit(habit)
	return nil
}

type InMemoryHabitLogRepository struct {
	s *InMemoryStore
}

func (r *InMemoryHabitLogRepository) Create(ctx context.Context, log *domain.HabitLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.habits[log.HabitID]; !ok {
		return domain.ErrHabitNotFound
	}

	key := logKey{habitID: log.HabitID, day: domain.Day(log.Date, time.UTC)}
	if _, exists := r.s.logs[key]; exists {
		return domain.ErrAlreadyLogged
	}

	cp := *log
	r.s.logs[key] = &cp
	return nil
}

func (r *InMemoryHabitLogRepository) ListByHabitID(ctx context.Context, habitID string, from, to *time.Time) ([]*domain.HabitLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	logs := []*domain.HabitLog{}
	for key, l := range r.s.logs {
		if key.habitID != habitID {
			continue
		}
		if from != nil && key.day.Before(*from) {
			continue
		}
		if to != nil && key.day.After(*to) {
			continue
		}
		cp := *l
		logs = append(logs, &cp)
	}

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Date.After(logs[j].Date)
	})

	return logs, nil
}

func (r *InMemoryHabitLogRepository) DeleteByDate(ctx context.Context, habitID string, day time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := logKey{habitID: habitID, day: domain.Day(day, time.UTC)}
	if _, ok := r.s.logs[key]; !ok {
		return domain.ErrHabitLogNotFound
	}
	delete(r.s.logs, key)
	return nil
}

type InMemoryGoalRepository struct {
	s *InMemoryStore
}

func (r *InMemoryGoalRepository) Create(ctx context.Context, goal *domain.Goal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *goal
	cp.Steps = nil
	r.s.goals[goal.ID] = &cp
	for _, st := range goal.Steps {
		r.s.steps[st.ID] = copyStep(st)
	}
	return nil
}

func (r *InMemoryGoalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.goals[id]
	if !ok {
		return nil, domain.ErrGoalNotFound
	}
	return r.s.goalWithSteps(g), nil
}

func (r *InMemoryGoalRepository) List(ctx context.Context, userID string, filter domain.GoalFilter) ([]*domain.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	goals := []*domain.Goal{}
	for _, g := range r.s.goals {
		if g.UserID != userID {
			continue
		}
		if filter.Status != "" && g.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && g.Priority != filter.Priority {
			continue
		}
		goals = append(goals, r.s.goalWithSteps(g))
	}

	sort.SliceStable(goals, func(i, j int) bool {
		if filter.ByDeadline {
			di, dj := goals[i].Deadline, goals[j].Deadline
			switch {
			case di == nil && dj == nil:
			case di == nil:
				return false
			case dj == nil:
				return true
			case !di.Equal(*dj):
				return di.Before(*dj)
			}
		}
		return goals[i].CreatedAt.After(goals[j].CreatedAt)
	})

	return goals, nil
}

func (r *InMemoryGoalRepository) Update(ctx context.Context, goal *domain.Goal, withSteps bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.goals[goal.ID]; !ok {
		return domain.ErrGoalNotFound
	}

	cp := *goal
	cp.Steps = nil
	r.s.goals[goal.ID] = &cp

	if withSteps {
		for id, st := range r.s.steps {
			if st.GoalID == goal.ID {
				delete(r.s.steps, id)
			}
		}
		for _, st := range goal.Steps {
			r.s.steps[st.ID] = copyStep(st)
		}
	}
	return nil
}

func (r *InMemoryGoalRepository) TransitionStatus(ctx context.Context, id string, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g, ok := r.s.goals[id]
	if !ok {
		return domain.ErrGoalNotFound
	}
	if g.Status != domain.GoalStatusActive {
		return domain.ErrGoalClosed
	}
	g.Status = status
	g.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryGoalRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.goals[id]; !ok {
		return domain.ErrGoalNotFound
	}
	delete(r.s.goals, id)
	for sid, st := range r.s.steps {
		if st.GoalID == id {
			delete(r.s.steps, sid)
		}
	}
	return nil
}

type InMemoryStepRepository struct {
	s *InMemoryStore
}

func (r *InMemoryStepRepository) Create(ctx context.Context, step *domain.Step) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.goals[step.GoalID]; !ok {
		return domain.ErrGoalNotFound
	}
	r.s.steps[step.ID] = copyStep(step)
	return nil
}

func (r *InMemoryStepRepository) GetByID(ctx context.Context, id string) (*domain.Step, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.steps[id]
	if !ok {
		return nil, domain.ErrStepNotFound
	}
	return copyStep(st), nil
}

func (r *InMemoryStepRepository) Update(ctx context.Context, step *domain.Step) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.steps[step.ID]; !ok {
		return domain.ErrStepNotFound
	}
	r.s.steps[step.ID] = copyStep(step)
	return nil
}

func (r *InMemoryStepRepository) Complete(ctx context.Context, id string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	st, ok := r.s.steps[id]
	if !ok {
		return false, domain.ErrStepNotFound
	}
	if st.IsCompleted {
		return false, nil
	}
	st.MarkCompleted(at)
	return true, nil
}

func (r *InMemoryStepRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.steps[id]; !ok {
		return domain.ErrStepNotFound
	}
	delete(r.s.steps, id)
	return nil
}

type InMemoryBadgeRepository struct {
	s *InMemoryStore
}

func (r *InMemoryBadgeRepository) GetByCode(ctx context.Context, code string) (*domain.Badge, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.badges[code]
	if !ok {
		return nil, domain.ErrBadgeNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *InMemoryBadgeRepository) List(ctx context.Context) ([]domain.Badge, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	badges := make([]domain.Badge, 0, len(r.s.badges))
	for _, b := range r.s.badges {
		badges = append(badges, *b)
	}
	sort.Slice(badges, func(i, j int) bool { return badges[i].Code < badges[j].Code })
	return badges, nil
}

func (r *InMemoryBadgeRepository) Upsert(ctx context.Context, badges []domain.Badge) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, b := range badges {
		cp := b
		if existing, ok := r.s.badges[b.Code]; ok {
			cp.ID = existing.ID
		} else if cp.ID == "" {
			cp.ID = uuid.NewString()
		}
		r.s.badges[b.Code] = &cp
	}
	return nil
}

func (r *InMemoryBadgeRepository) CreateUserBadge(ctx context.Context, userID, badgeID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := userBadgeKey{userID: userID, badgeID: badgeID}
	if _, exists := r.s.userBadges[key]; exists {
		return false, nil
	}
	r.s.userBadges[key] = time.Now().UTC()
	return true, nil
}

func (r *InMemoryBadgeRepository) ListUserBadges(ctx context.Context, userID string) ([]domain.UserBadge, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	byID := make(map[string]*domain.Badge, len(r.s.badges))
	for _, b := range r.s.badges {
		byID[b.ID] = b
	}

	out := []domain.UserBadge{}
	for key, at := range r.s.userBadges {
		if key.userID != userID {
			continue
		}
		ub := domain.UserBadge{UserID: userID, BadgeID: key.badgeID, UnlockedAt: at}
		if b, ok := byID[key.badgeID]; ok {
			ub.Code, ub.Name, ub.Icon = b.Code, b.Name, b.Icon
		}
		out = append(out, ub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnlockedAt.Before(out[j].UnlockedAt) })
	return out, nil
}

type InMemoryMilestoneRepository struct {
	s *InMemoryStore
}

func (r *InMemoryMilestoneRepository) ClaimStreakMilestone(ctx context.Context, habitID string, milestone int, runStart time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := milestoneKey{habitID: habitID, milestone: milestone, runStart: domain.Day(runStart, time.UTC)}
	if _, claimed := r.s.milestones[key]; claimed {
		return false, nil
	}
	r.s.milestones[key] = struct{}{}
	return true, nil
}

type InMemoryStatsRepository struct {
	s *InMemoryStore
}

func (r *InMemoryStatsRepository) CountGoals(ctx context.Context, userID string, status string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, g := range r.s.goals {
		if g.UserID == userID && (status == "" || g.Status == status) {
			n++
		}
	}
	return n, nil
}

func (r *InMemoryStatsRepository) CountHabits(ctx context.Context, userID string, activeOnly bool) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, h := range r.s.habits {
		if h.UserID == userID && (!activeOnly || !h.IsArchived) {
			n++
		}
	}
	return n, nil
}

func (r *InMemoryStatsRepository) CountHabitLogs(ctx context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for key := range r.s.logs {
		if h, ok := r.s.habits[key.habitID]; ok && h.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *InMemoryStatsRepository) GoalStatsByCategory(ctx context.Context, userID string) ([]domain.GoalCategoryStat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[[2]string]int)
	for _, g := range r.s.goals {
		if g.UserID == userID {
			counts[[2]string{g.Category, g.Status}]++
		}
	}

	out := make([]domain.GoalCategoryStat, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.GoalCategoryStat{Category: k[0], Status: k[1], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}

func (r *InMemoryStatsRepository) PerHabitStats(ctx context.Context, userID string) ([]domain.PerHabitStat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	totals := make(map[string]int)
	for key := range r.s.logs {
		totals[key.habitID]++
	}

	out := []domain.PerHabitStat{}
	for _, h := range r.s.habits {
		if h.UserID != userID || h.IsArchived {
			continue
		}
		out = append(out, domain.PerHabitStat{
			HabitID:   h.ID,
			Name:      h.Name,
			TotalLogs: totals[h.ID],
			Frequency: h.Frequency,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
