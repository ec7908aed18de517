package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-levelup/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
	"github.com/comitanigiacomo/kanso-levelup/internal/core/services"
)

func ptr[T any](v T) *T {
	return &v
}

var day1 = time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Day moves the clock to the n-th day of the scenario, counting from 1.
func (c *testClock) Day(n int) time.Time {
	c.Set(day1.AddDate(0, 0, n-1))
	return domain.Day(c.Now(), time.UTC)
}

type recordingObserver struct {
	mu       sync.Mutex
	rewards  []*domain.Reward
	failures map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{failures: make(map[string]int)}
}

func (o *recordingObserver) ObserveReward(r *domain.Reward) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rewards = append(o.rewards, r)
}

func (o *recordingObserver) ObserveFailure(event string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures[event]++
}

func (o *recordingObserver) Failures(event string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failures[event]
}

type fixture struct {
	store    *repository.InMemoryStore
	clock    *testClock
	calendar services.Calendar
	observer *recordingObserver

	ledger  *services.XpLedger
	badges  *services.BadgeRegistry
	engine  *services.Engine
	rewards *services.RewardBoundary

	habits    *services.HabitService
	logs      *services.HabitLogService
	goals     *services.GoalService
	steps     *services.StepService
	stats     *services.StatsService
	habitStat *services.HabitStatsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repository.NewInMemoryStore()
	require.NoError(t, store.Badges().Upsert(context.Background(), domain.DefaultBadges()))

	clock := &testClock{now: day1}
	calendar := services.Calendar{Now: clock.Now, Location: time.UTC}
	observer := newRecordingObserver()

	ledger := services.NewXpLedger(store.Users(), domain.DefaultLevelTable())
	badges := services.NewBadgeRegistry(store.Badges())
	engine := services.NewEngine(
		ledger,
		badges,
		store.Stats(),
		store.HabitLogs(),
		store.Milestones(),
		services.WithCalendar(calendar),
		services.WithRewardObserver(observer),
	)
	rewards := services.NewRewardBoundary(engine, observer)

	return &fixture{
		store:     store,
		clock:     clock,
		calendar:  calendar,
		observer:  observer,
		ledger:    ledger,
		badges:    badges,
		engine:    engine,
		rewards:   rewards,
		habits:    services.NewHabitService(store.Habits(), rewards, calendar),
		logs:      services.NewHabitLogService(store.Habits(), store.HabitLogs(), rewards, calendar),
		goals:     services.NewGoalService(store.Goals(), rewards),
		steps:     services.NewStepService(store.Goals(), store.Steps(), rewards),
		stats:     services.NewStatsService(store.Stats(), store.Users(), domain.DefaultLevelTable()),
		habitStat: services.NewHabitStatsService(store.Habits(), store.HabitLogs(), calendar),
	}
}

func (f *fixture) newUser(t *testing.T, email string) *domain.User {
	t.Helper()

	u, err := domain.NewUser(email+"-id", email)
	require.NoError(t, err)
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) user(t *testing.T, id string) *domain.User {
	t.Helper()

	u, err := f.store.Users().GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (f *fixture) newHabit(t *testing.T, userID, name string) *domain.Habit {
	t.Helper()

	h, _, err := f.habits.Create(context.Background(), services.CreateHabitInput{
		UserID: userID,
		Name:   name,
	})
	require.NoError(t, err)
	return h
}

// stubEngine lets tests script the engine's behavior per event.
type stubEngine struct {
	mu     sync.Mutex
	calls  map[string]int
	handle func(event string) (*domain.Reward, error)
}

func newStubEngine(handle func(event string) (*domain.Reward, error)) *stubEngine {
	return &stubEngine{calls: make(map[string]int), handle: handle}
}

func (s *stubEngine) on(event string) (*domain.Reward, error) {
	s.mu.Lock()
	s.calls[event]++
	s.mu.Unlock()
	if s.handle == nil {
		return domain.NewReward(event), nil
	}
	return s.handle(event)
}

func (s *stubEngine) Calls(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[event]
}

func (s *stubEngine) OnGoalCreated(ctx context.Context, userID string) (*domain.Reward, error) {
	return s.on(domain.EventGoalCreated)
}

func (s *stubEngine) OnGoalCompleted(ctx context.Context, userID string) (*domain.Reward, error) {
	return s.on(domain.EventGoalCompleted)
}

func (s *stubEngine) OnHabitCreated(ctx context.Context, userID string) (*domain.Reward, error) {
	return s.on(domain.EventHabitCreated)
}

func (s *stubEngine) OnHabitLogged(ctx context.Context, userID, habitID string) (*domain.Reward, error) {
	return s.on(domain.EventHabitLogged)
}

func (s *stubEngine) OnStepCompleted(ctx context.Context, userID string) (*domain.Reward, error) {
	return s.on(domain.EventStepCompleted)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) IncrementXP(ctx context.Context, userID string, amount int) (int, int, error) {
	args := m.Called(ctx, userID, amount)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockUserRepository) SetLevel(ctx context.Context, userID string, level, expectedXP int) (bool, error) {
	args := m.Called(ctx, userID, level, expectedXP)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ListLevelStates(ctx context.Context) ([]domain.LevelState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LevelState), args.Error(1)
}

type MockHabitRepository struct {
	mock.Mock
}

func (m *MockHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	return m.Called(ctx, habit).Error(0)
}

func (m *MockHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Habit), args.Error(1)
}

func (m *MockHabitRepository) ListByUserID(ctx context.Context, userID string, includeArchived bool) ([]*domain.Habit, error) {
	args := m.Called(ctx, userID, includeArchived)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Habit), args.Error(1)
}

func (m *MockHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	return m.Called(ctx, habit).Error(0)
}

type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) CountGoals(ctx context.Context, userID string, status string) (int, error) {
	args := m.Called(ctx, userID, status)
	return args.Int(0), args.Error(1)
}

func (m *MockStatsRepository) CountHabits(ctx context.Context, userID string, activeOnly bool) (int, error) {
	args := m.Called(ctx, userID, activeOnly)
	return args.Int(0), args.Error(1)
}

func (m *MockStatsRepository) CountHabitLogs(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockStatsRepository) GoalStatsByCategory(ctx context.Context, userID string) ([]domain.GoalCategoryStat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GoalCategoryStat), args.Error(1)
}

func (m *MockStatsRepository) PerHabitStats(ctx context.Context, userID string) ([]domain.PerHabitStat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PerHabitStat), args.Error(1)
}
