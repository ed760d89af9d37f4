package history

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aura-classroom/livepoll/internal/models"
)

const (
	// DefaultBuffer is the number of ended polls that may wait for archival.
	DefaultBuffer = 64
	// DefaultMaxRetries is the number of attempts per store before a poll is dropped.
	DefaultMaxRetries = 3
	// DefaultBackoff is the delay between attempts.
	DefaultBackoff = 2 * time.Second
)

// Store persists ended polls outside the process.
type Store interface {
	Name() string
	Save(ctx context.Context, p *models.Poll) error
}

// ArchiverOptions configures an Archiver. Zero values take the defaults.
type ArchiverOptions struct {
	Buffer     int
	MaxRetries int
	Backoff    time.Duration
}

// Archiver copies ended polls to its stores from a background goroutine so
// the session never waits on Redis or Postgres.
type Archiver struct {
	stores     []Store
	queue      chan *models.Poll
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// NewArchiver creates an archiver over stores. Call Run to start it.
func NewArchiver(logger *zap.Logger, opts ArchiverOptions, stores ...Store) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	return &Archiver{
		stores:     stores,
		queue:      make(chan *models.Poll, opts.Buffer),
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		logger:     logger,
	}
}

// Record queues p for archival. It never blocks; when the queue is full the
// poll is dropped and logged.
func (a *Archiver) Record(p *models.Poll) {
	if len(a.stores) == 0 {
		return
	}
	select {
	case a.queue <- p:
	default:
		a.logger.Warn("archive queue full, dropping poll", zap.String("poll_id", p.ID))
	}
}

// Run archives queued polls until ctx is done. Polls still queued at that
// point are flushed with a short deadline.
func (a *Archiver) Run(ctx context.Context) {
	a.logger.Info("history archiver started", zap.Int("stores", len(a.stores)))
	for {
		select {
		case <-ctx.Done():
			a.drain()
			a.logger.Info("history archiver stopped")
			return
		case p := <-a.queue:
			a.archive(ctx, p)
		}
	}
}

func (a *Archiver) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case p := <-a.queue:
			a.archive(ctx, p)
		default:
			return
		}
	}
}

func (a *Archiver) archive(ctx context.Context, p *models.Poll) {
	for _, s := range a.stores {
		if err := a.save(ctx, s, p); err != nil {
			a.logger.Error("archive poll failed",
				zap.String("store", s.Name()),
				zap.String("poll_id", p.ID),
				zap.Error(err),
			)
		}
	}
}

func (a *Archiver) save(ctx context.Context, s Store, p *models.Poll) error {
	var err error
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		if err = s.Save(ctx, p); err == nil {
			a.logger.Debug("poll archived", zap.String("store", s.Name()), zap.String("poll_id", p.ID))
			return nil
		}
		if attempt == a.maxRetries {
			break
		}
		a.logger.Warn("archive retry",
			zap.String("store", s.Name()),
			zap.String("poll_id", p.ID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.backoff):
		}
	}
	return err
}
