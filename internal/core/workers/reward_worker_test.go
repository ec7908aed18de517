package workers_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
	"github.com/comitanigiacomo/kanso-levelup/internal/core/workers"
)

type call struct {
	event   string
	userID  string
	habitID string
}

type fakeEngine struct {
	calls chan call
	fail  func(event string) error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{calls: make(chan call, 16)}
}

func (f *fakeEngine) handle(event, userID, habitID string) (*domain.Reward, error) {
	f.calls <- call{event: event, userID: userID, habitID: habitID}
	if f.fail != nil {
		if err := f.fail(event); err != nil {
			return nil, err
		}
	}
	return domain.NewReward(event), nil
}

func (f *fakeEngine) OnGoalCreated(ctx context.Context, userID string) (*domain.Reward, error) {
	return f.handle(domain.EventGoalCreated, userID, "")
}

func (f *fakeEngine) OnGoalCompleted(ctx context.Context, userID string) (*domain.Reward, error) {
	return f.handle(domain.EventGoalCompleted, userID, "")
}

func (f *fakeEngine) OnHabitCreated(ctx context.Context, userID string) (*domain.Reward, error) {
	return f.handle(domain.EventHabitCreated, userID, "")
}

func (f *fakeEngine) OnHabitLogged(ctx context.Context, userID, habitID string) (*domain.Reward, error) {
	return f.handle(domain.EventHabitLogged, userID, habitID)
}

func (f *fakeEngine) OnStepCompleted(ctx context.Context, userID string) (*domain.Reward, error) {
	return f.handle(domain.EventStepCompleted, userID, "")
}

type failureCounter struct {
	mu sync.Mutex
	n  map[string]int
}

func (c *failureCounter) ObserveReward(*domain.Reward) {}

func (c *failureCounter) ObserveFailure(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == nil {
		c.n = make(map[string]int)
	}
	c.n[event]++
}

func (c *failureCounter) get(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[event]
}

func receive(t *testing.T, ch <-chan call) call {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("engine was not called")
		return call{}
	}
}

func TestRewardWorker_ProcessesJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := newFakeEngine()
	w := workers.NewRewardWorker(engine, 10, nil)
	w.Start(ctx)

	reward, err := w.OnHabitLogged(ctx, "u1", "h1")

	require.NoError(t, err)
	assert.True(t, reward.Deferred)
	assert.Equal(t, domain.EventHabitLogged, reward.Event)
	assert.Equal(t, call{event: domain.EventHabitLogged, userID: "u1", habitID: "h1"}, receive(t, engine.calls))

	_, err = w.OnGoalCompleted(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, call{event: domain.EventGoalCompleted, userID: "u2"}, receive(t, engine.calls))
}

func TestRewardWorker_QueueFull(t *testing.T) {
	engine := newFakeEngine()
	w := workers.NewRewardWorker(engine, 1, nil)

	_, err := w.OnStepCompleted(context.Background(), "u1")
	require.NoError(t, err)

	reward, err := w.OnStepCompleted(context.Background(), "u1")

	var aux *domain.AuxiliaryFailure
	require.ErrorAs(t, err, &aux)
	assert.ErrorIs(t, err, workers.ErrQueueFull)
	assert.True(t, reward.Deferred)
}

func TestRewardWorker_SurvivesFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := newFakeEngine()
	engine.fail = func(event string) error {
		switch event {
		case domain.EventGoalCreated:
			panic("boom")
		case domain.EventHabitCreated:
			return errors.New("store down")
		}
		return nil
	}
	counter := &failureCounter{}
	w := workers.NewRewardWorker(engine, 10, counter)
	w.Start(ctx)

	_, _ = w.OnGoalCreated(ctx, "u1")
	_, _ = w.OnHabitCreated(ctx, "u1")
	_, _ = w.OnStepCompleted(ctx, "u1")

	receive(t, engine.calls)
	receive(t, engine.calls)
	assert.Equal(t, domain.EventStepCompleted, receive(t, engine.calls).event)

	assert.Eventually(t, func() bool {
		return counter.get(domain.EventGoalCreated) == 1 && counter.get(domain.EventHabitCreated) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRewardWorker_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	w := workers.NewRewardWorker(newFakeEngine(), 0, nil)
	w.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRewardWorker_DrainsQueueOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := newFakeEngine()
	counter := &failureCounter{}
	w := workers.NewRewardWorker(engine, 10, counter)

	for _, user := range []string{"u1", "u2", "u3", "u4", "u5"} {
		_, err := w.OnHabitLogged(context.Background(), user, "h1")
		require.NoError(t, err)
	}

	w.Start(ctx)
	w.Wait()

	require.Len(t, engine.calls, 5)
	assert.Equal(t, "u1", (<-engine.calls).userID)
	assert.Zero(t, counter.get(domain.EventHabitLogged))
}

func TestRewardWorker_DrainDeadlineCountsDroppedJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := newFakeEngine()
	engine.fail = func(event string) error {
		if event == domain.EventStepCompleted {
			time.Sleep(100 * time.Millisecond)
		}
		return nil
	}
	counter := &failureCounter{}
	w := workers.NewRewardWorker(engine, 10, counter)
	w.SetDrainTimeout(20 * time.Millisecond)

	_, _ = w.OnStepCompleted(context.Background(), "u1")
	_, _ = w.OnGoalCompleted(context.Background(), "u1")
	_, _ = w.OnGoalCompleted(context.Background(), "u1")

	w.Start(ctx)
	w.Wait()

	assert.Len(t, engine.calls, 1, "only the job started before the deadline reaches the engine")
	assert.Equal(t, 2, counter.get(domain.EventGoalCompleted))
	assert.Zero(t, counter.get(domain.EventStepCompleted))
}
