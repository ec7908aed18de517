package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
	"github.com/comitanigiacomo/kanso-levelup/internal/core/services"
)

var ErrQueueFull = errors.New("reward queue is full")

const (
	DefaultQueueSize    = 100
	DefaultDrainTimeout = 5 * time.Second
)

type RewardJob struct {
	Event   string
	UserID  string
	HabitID string
}

// RewardWorker implements services.GamificationEngine by queueing events and
// applying them on a background goroutine. Callers get a Deferred reward.
type RewardWorker struct {
	engine   services.GamificationEngine
	observer services.RewardObserver
	jobs     chan RewardJob
	wg       sync.WaitGroup

	drainTimeout time.Duration
}

func NewRewardWorker(engine services.GamificationEngine, queueSize int, observer services.RewardObserver) *RewardWorker {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &RewardWorker{
		engine:   engine,
		observer: observer,
		jobs:     make(chan RewardJob, queueSize),

		drainTimeout: DefaultDrainTimeout,
	}
}

// SetDrainTimeout bounds how long Start keeps applying queued jobs after its
// context is cancelled. Call it before Start.
func (w *RewardWorker) SetDrainTimeout(d time.Duration) {
	if d > 0 {
		w.drainTimeout = d
	}
}

func (w *RewardWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		log.Info("Reward worker started in background...")
		for {
			if ctx.Err() != nil {
				w.drain(ctx)
				return
			}

			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				w.drain(ctx)
				return
			}
		}
	}()
}

// drain applies the jobs still queued at shutdown. Jobs left once the drain
// deadline passes are reported as failures.
func (w *RewardWorker) drain(parent context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), w.drainTimeout)
	defer cancel()

	applied, dropped := 0, 0
	for {
		select {
		case job := <-w.jobs:
			if ctx.Err() != nil {
				w.failed(job.Event)
				dropped++
				continue
			}
			w.processJob(ctx, job)
			applied++
		default:
			log.WithFields(log.Fields{
				"applied": applied,
				"dropped": dropped,
			}).Info("Reward worker shutting down...")
			return
		}
	}
}

// Wait blocks until the goroutine started by Start has returned.
func (w *RewardWorker) Wait() {
	w.wg.Wait()
}

func (w *RewardWorker) enqueue(job RewardJob) (*domain.Reward, error) {
	reward := domain.NewReward(job.Event)
	reward.Deferred = true

	select {
	case w.jobs <- job:
		return reward, nil
	default:
		log.WithFields(log.Fields{
			"event":   job.Event,
			"user_id": job.UserID,
		}).Warn("Reward worker queue full! Dropping job")
		return reward, &domain.AuxiliaryFailure{Event: job.Event, UserID: job.UserID, Err: ErrQueueFull}
	}
}

func (w *RewardWorker) OnGoalCreated(ctx context.Context, userID string) (*domain.Reward, error) {
	return w.enqueue(RewardJob{Event: domain.EventGoalCreated, UserID: userID})
}

func (w *RewardWorker) OnGoalCompleted(ctx context.Context, userID string) (*domain.Reward, error) {
	return w.enqueue(RewardJob{Event: domain.EventGoalCompleted, UserID: userID})
}

func (w *RewardWorker) OnHabitCreated(ctx context.Context, userID string) (*domain.Reward, error) {
	return w.enqueue(RewardJob{Event: domain.EventHabitCreated, UserID: userID})
}

func (w *RewardWorker) OnHabitLogged(ctx context.Context, userID, habitID string) (*domain.Reward, error) {
	return w.enqueue(RewardJob{Event: domain.EventHabitLogged, UserID: userID, HabitID: habitID})
}

func (w *RewardWorker) OnStepCompleted(ctx context.Context, userID string) (*domain.Reward, error) {
	return w.enqueue(RewardJob{Event: domain.EventStepCompleted, UserID: userID})
}

func (w *RewardWorker) processJob(ctx context.Context, job RewardJob) {
	logger := log.WithFields(log.Fields{
		"event":   job.Event,
		"user_id": job.UserID,
	})

	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("Reward worker recovered from panic")
			w.failed(job.Event)
		}
	}()

	var (
		reward *domain.Reward
		err    error
	)

	switch job.Event {
	case domain.EventGoalCreated:
		reward, err = w.engine.OnGoalCreated(ctx, job.UserID)
	case domain.EventGoalCompleted:
		reward, err = w.engine.OnGoalCompleted(ctx, job.UserID)
	case domain.EventHabitCreated:
		reward, err = w.engine.OnHabitCreated(ctx, job.UserID)
	case domain.EventHabitLogged:
		reward, err = w.engine.OnHabitLogged(ctx, job.UserID, job.HabitID)
	case domain.EventStepCompleted:
		reward, err = w.engine.OnStepCompleted(ctx, job.UserID)
	default:
		err = fmt.Errorf("unknown event %q", job.Event)
	}

	if err != nil {
		logger.WithError(err).Error("Reward worker failed to apply event")
		w.failed(job.Event)
		return
	}

	if reward != nil && (reward.XPAwarded > 0 || len(reward.BadgesUnlocked) > 0) {
		logger.WithFields(log.Fields{
			"xp":     reward.XPAwarded,
			"badges": reward.BadgesUnlocked,
		}).Debug("Reward applied")
	}
}

func (w *RewardWorker) failed(event string) {
	if w.observer != nil {
		w.observer.ObserveFailure(event)
	}
}
