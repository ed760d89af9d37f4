// Package lifecycle implements the poll state machine:
//
//	NoPoll -> Active -> Ended -> Active -> ...
//
// Only one poll is active at a time. An active poll ends when its timer fires,
// when every student has answered, or on an explicit stop; all of those paths
// converge on End, which is idempotent.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-classroom/livepoll/internal/models"
)

var (
	// ErrInvalidPollRequest is returned for a bad question, option list or timer.
	ErrInvalidPollRequest = errors.New("invalid poll request")
	// ErrPollInProgress is returned when a poll is active and students are still answering.
	ErrPollInProgress = errors.New("cannot create poll while students are still answering")
)

// Status is the lifecycle state.
type Status int

const (
	NoPoll Status = iota
	Active
	Ended
)

func (s Status) String() string {
	switch s {
	case NoPoll:
		return "no_poll"
	case Active:
		return "active"
	case Ended:
		return "ended"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Limits bounds what a poll request may contain.
type Limits struct {
	MinOptions     int
	MaxOptions     int
	MinTimer       int
	MaxTimer       int
	DefaultTimer   int // used when a request leaves the timer at zero
	MaxQuestionLen int
	MaxOptionLen   int
}

// DefaultLimits matches the classroom client: 2-6 options, 10-300 seconds.
func DefaultLimits() Limits {
	return Limits{
		MinOptions:     2,
		MaxOptions:     6,
		MinTimer:       10,
		MaxTimer:       300,
		DefaultTimer:   60,
		MaxQuestionLen: 500,
		MaxOptionLen:   200,
	}
}

// Request is a teacher's create-poll request.
type Request struct {
	Question     string
	Options      []string
	TimerSeconds int
}

// State is a read-only view of the lifecycle. Poll is nil in NoPoll, otherwise
// a copy of the active or last ended poll.
type State struct {
	Status Status
	Poll   *models.Poll
}

// ExpireFunc is called from the timer goroutine with the id of the poll whose
// timer fired.
type ExpireFunc func(pollID string)

// Lifecycle owns the current poll and its timer. It is not safe for concurrent
// use; callers serialize access, including from the expire callback.
type Lifecycle struct {
	clock    clock.Clock
	limits   Limits
	onExpire ExpireFunc
	logger   *zap.Logger

	status Status
	poll   *models.Poll
	timer  *clock.Timer
}

// New creates a lifecycle in NoPoll.
func New(clk clock.Clock, limits Limits, onExpire ExpireFunc, logger *zap.Logger) *Lifecycle {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{clock: clk, limits: limits, onExpire: onExpire, logger: logger}
}

// Validate checks req against the limits and returns the normalized request.
func (l *Lifecycle) Validate(req Request) (Request, error) {
	out := Request{Question: strings.TrimSpace(req.Question), TimerSeconds: req.TimerSeconds}
	if out.Question == "" {
		return Request{}, fmt.Errorf("%w: question is required", ErrInvalidPollRequest)
	}
	if utf8.RuneCountInString(out.Question) > l.limits.MaxQuestionLen {
		return Request{}, fmt.Errorf("%w: question exceeds %d characters", ErrInvalidPollRequest, l.limits.MaxQuestionLen)
	}
	if n := len(req.Options); n < l.limits.MinOptions || n > l.limits.MaxOptions {
		return Request{}, fmt.Errorf("%w: need between %d and %d options, got %d",
			ErrInvalidPollRequest, l.limits.MinOptions, l.limits.MaxOptions, n)
	}
	out.Options = make([]string, len(req.Options))
	for i, o := range req.Options {
		o = strings.TrimSpace(o)
		if o == "" {
			return Request{}, fmt.Errorf("%w: option %d is empty", ErrInvalidPollRequest, i+1)
		}
		if utf8.RuneCountInString(o) > l.limits.MaxOptionLen {
			return Request{}, fmt.Errorf("%w: option %d exceeds %d characters", ErrInvalidPollRequest, i+1, l.limits.MaxOptionLen)
		}
		out.Options[i] = o
	}
	if out.TimerSeconds == 0 {
		out.TimerSeconds = l.limits.DefaultTimer
	}
	if out.TimerSeconds < l.limits.MinTimer || out.TimerSeconds > l.limits.MaxTimer {
		return Request{}, fmt.Errorf("%w: timer must be between %d and %d seconds",
			ErrInvalidPollRequest, l.limits.MinTimer, l.limits.MaxTimer)
	}
	return out, nil
}

// CanCreate reports whether a new poll may start. allAnswered is the roster's
// AllAnswered at the time of the call.
func (l *Lifecycle) CanCreate(allAnswered bool) bool {
	return l.status != Active || allAnswered
}

// Create starts a new poll and arms its timer. A poll still active at this
// point (allowed only when allAnswered) is replaced without results; callers
// that want it in history end it first.
func (l *Lifecycle) Create(req Request, allAnswered bool) (*models.Poll, error) {
	if !l.CanCreate(allAnswered) {
		return nil, ErrPollInProgress
	}
	req, err := l.Validate(req)
	if err != nil {
		return nil, err
	}

	l.stopTimer()
	p := &models.Poll{
		ID:           uuid.NewString(),
		Question:     req.Question,
		Options:      req.Options,
		TimerSeconds: req.TimerSeconds,
		CreatedAt:    l.clock.Now(),
		IsActive:     true,
	}
	l.poll = p
	l.status = Active

	id := p.ID
	l.timer = l.clock.AfterFunc(time.Duration(req.TimerSeconds)*time.Second, func() {
		if l.onExpire != nil {
			l.onExpire(id)
		}
	})
	l.logger.Debug("poll timer armed", zap.String("poll_id", id), zap.Int("seconds", req.TimerSeconds))
	return p.Clone(), nil
}

// End closes the active poll with the given results and returns a copy of it.
// It reports false and changes nothing if no poll is active.
func (l *Lifecycle) End(results []models.Result) (*models.Poll, bool) {
	if l.status != Active || l.poll == nil || !l.poll.IsActive {
		return nil, false
	}
	l.stopTimer()
	now := l.clock.Now()
	l.poll.IsActive = false
	l.poll.EndedAt = &now
	l.poll.Results = append([]models.Result(nil), results...)
	l.status = Ended
	return l.poll.Clone(), true
}

// ActivePoll returns a copy of the active poll, or false if none is active.
func (l *Lifecycle) ActivePoll() (*models.Poll, bool) {
	if l.status != Active {
		return nil, false
	}
	return l.poll.Clone(), true
}

// IsActive reports whether pollID is the active poll.
func (l *Lifecycle) IsActive(pollID string) bool {
	return l.status == Active && l.poll != nil && l.poll.ID == pollID
}

// Current returns a snapshot for late joiners.
func (l *Lifecycle) Current() State {
	return State{Status: l.status, Poll: l.poll.Clone()}
}

// Shutdown cancels any pending timer without ending the poll.
func (l *Lifecycle) Shutdown() {
	l.stopTimer()
}

func (l *Lifecycle) stopTimer() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}
