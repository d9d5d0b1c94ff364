// Package jobs runs outbound-mail delivery on background workers so mail
// provider latency never blocks a request handler.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MailJob is one outbound message waiting for delivery.
type MailJob struct {
	ID        string
	Kind      string
	Recipient string
	Subject   string
	Body      string
	Attempt   int
	Enqueued  time.Time
}

// Deliverer sends one mail job. A non-nil error triggers a retry.
type Deliverer func(context.Context, MailJob) error

// DispatcherConfig tunes worker-pool behaviour.
type DispatcherConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Dispatcher is an in-memory mail queue backed by goroutines. Failed
// deliveries are retried with a delay; jobs past MaxRetries are dropped
// with a log entry, never surfaced to the enqueuing request.
type Dispatcher struct {
	name      string
	deliverer Deliverer

	workers    int
	bufferSize int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	jobs    chan MailJob
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewDispatcher builds a dispatcher with the provided deliverer.
func NewDispatcher(name string, deliverer Deliverer, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Dispatcher{
		name:       name,
		deliverer:  deliverer,
		workers:    cfg.Workers,
		bufferSize: cfg.BufferSize,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		jobs:       make(chan MailJob, cfg.BufferSize),
	}
}

// Start begins worker consumption. Safe to call once.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.started = true
	d.logger.Sugar().Infow("mail dispatcher started", "dispatcher", d.name, "workers", d.workers)
}

// Stop cancels workers and waits for them to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.cancel()
	d.mu.Unlock()
	d.wg.Wait()
	d.logger.Sugar().Infow("mail dispatcher stopped", "dispatcher", d.name)
}

// Enqueue hands a message to the workers.
func (d *Dispatcher) Enqueue(job MailJob) error {
	d.mu.Lock()
	ctx := d.ctx
	started := d.started
	d.mu.Unlock()

	if !started {
		return fmt.Errorf("dispatcher %s not started", d.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("dispatcher %s stopped: %w", d.name, ctx.Err())
	case d.jobs <- job:
		return nil
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case job := <-d.jobs:
			if err := d.deliverer(d.ctx, job); err != nil {
				d.handleFailure(job, err)
			}
		}
	}
}

func (d *Dispatcher) handleFailure(job MailJob, err error) {
	job.Attempt++
	if job.Attempt > d.maxRetries {
		d.logger.Sugar().Errorw("mail delivery abandoned",
			"dispatcher", d.name, "job_id", job.ID, "kind", job.Kind, "recipient", job.Recipient, "error", err)
		return
	}
	d.logger.Sugar().Warnw("mail delivery failed, retrying",
		"dispatcher", d.name, "job_id", job.ID, "kind", job.Kind, "recipient", job.Recipient, "attempt", job.Attempt, "error", err)

	go func(j MailJob) {
		timer := time.NewTimer(d.retryDelay)
		defer timer.Stop()
		select {
		case <-d.ctx.Done():
			return
		case <-timer.C:
			if err := d.Enqueue(j); err != nil {
				d.logger.Sugar().Errorw("failed to requeue mail",
					"dispatcher", d.name, "job_id", j.ID, "recipient", j.Recipient, "error", err)
			}
		}
	}(job)
}
