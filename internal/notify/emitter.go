// Package notify creates notification records as a detached side effect of
// committed writes. Emitting never blocks and never fails the caller: events
// go to a bounded outbox drained by background workers, and every failure is
// logged and counted, never returned. There are no retries.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anonto42/bazaar/backend/internal/metrics"
	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/anonto42/bazaar/backend/internal/repositories"
)

// Event describes one notification to create for Target, caused by Actor.
type Event struct {
	Actor               string
	Target              string
	Type                models.NotificationType
	Title               string
	Message             string
	Data                models.NotificationData
	RelatedProduct      string
	RelatedConversation string
	RelatedUser         string
}

// selfTargeted reports whether the event would notify a user of their own action.
func (ev Event) selfTargeted() bool {
	return ev.Target == "" || ev.Target == ev.Actor
}

// BuildFunc resolves an event after the triggering write has committed.
// Returning ok=false skips the notification silently.
type BuildFunc func(ctx context.Context) (ev Event, ok bool, err error)

type job struct {
	kind  models.NotificationType
	event Event
	build BuildFunc
}

// Options tunes the outbox.
type Options struct {
	Buffer  int
	Workers int
	Timeout time.Duration // per delivery
}

func (o Options) withDefaults() Options {
	if o.Buffer <= 0 {
		o.Buffer = 1024
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	return o
}

// Emitter is safe for concurrent use.
type Emitter struct {
	repo repositories.NotificationRepository
	log  *slog.Logger
	opts Options
	now  func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan job
	wg     sync.WaitGroup
}

func NewEmitter(repo repositories.NotificationRepository, log *slog.Logger, opts Options) *Emitter {
	opts = opts.withDefaults()
	return &Emitter{
		repo:  repo,
		log:   log.With("component", "notify"),
		opts:  opts,
		now:   time.Now,
		queue: make(chan job, opts.Buffer),
	}
}

// Start launches the workers draining the outbox.
func (e *Emitter) Start() {
	for i := 0; i < e.opts.Workers; i++ {
		e.wg.Add(1)
		go e.work()
	}
}

// Stop closes the outbox and waits for queued events to be delivered.
// Events emitted afterwards are dropped.
func (e *Emitter) Stop() {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
	e.mu.Unlock()
	e.wg.Wait()
}

// Emit queues ev. Events targeting their own actor are skipped.
func (e *Emitter) Emit(ev Event) {
	if ev.selfTargeted() {
		metrics.Notifications.WithLabelValues(string(ev.Type), metrics.OutcomeSkipped).Inc()
		return
	}
	e.enqueue(job{kind: ev.Type, event: ev})
}

// EmitFunc queues a deferred event; build runs on a worker.
func (e *Emitter) EmitFunc(kind models.NotificationType, build BuildFunc) {
	e.enqueue(job{kind: kind, build: build})
}

func (e *Emitter) enqueue(j job) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		e.drop(j, "emitter stopped")
		return
	}
	select {
	case e.queue <- j:
		metrics.NotificationQueueDepth.Set(float64(len(e.queue)))
	default:
		e.drop(j, "outbox full")
	}
}

func (e *Emitter) drop(j job, reason string) {
	metrics.Notifications.WithLabelValues(string(j.kind), metrics.OutcomeDropped).Inc()
	e.log.Warn("notification dropped", "type", j.kind, "reason", reason)
}

func (e *Emitter) work() {
	defer e.wg.Done()
	for j := range e.queue {
		metrics.NotificationQueueDepth.Set(float64(len(e.queue)))
		e.deliver(j)
	}
}

func (e *Emitter) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), e.opts.Timeout)
	defer cancel()

	outcome, err := e.safeDeliver(ctx, j)
	metrics.Notifications.WithLabelValues(string(j.kind), outcome).Inc()
	if err != nil {
		e.log.Error("notification delivery failed", "type", j.kind, "error", err)
	}
}

// safeDeliver contains panics from builders or the repository.
func (e *Emitter) safeDeliver(ctx context.Context, j job) (outcome string, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome, err = metrics.OutcomeFailed, fmt.Errorf("panic: %v", r)
		}
	}()

	ev := j.event
	if j.build != nil {
		built, ok, err := j.build(ctx)
		if err != nil {
			return metrics.OutcomeFailed, fmt.Errorf("build: %w", err)
		}
		if !ok {
			return metrics.OutcomeSkipped, nil
		}
		ev = built
	}
	if ev.selfTargeted() {
		return metrics.OutcomeSkipped, nil
	}
	if err := ev.Data.Validate(ev.Type); err != nil {
		return metrics.OutcomeFailed, err
	}

	notification := &models.Notification{
		UserID:              ev.Target,
		Type:                ev.Type,
		Title:               ev.Title,
		Message:             ev.Message,
		Data:                ev.Data,
		RelatedProduct:      ev.RelatedProduct,
		RelatedConversation: ev.RelatedConversation,
		RelatedUser:         ev.RelatedUser,
		CreatedAt:           e.now(),
	}
	if err := e.repo.CreateNotification(ctx, notification); err != nil {
		return metrics.OutcomeFailed, fmt.Errorf("persist: %w", err)
	}
	return metrics.OutcomeEmitted, nil
}
