// Package session sequences every classroom command against the roster, the
// poll lifecycle and the history log, and turns the resulting state changes
// into notifications for the transport.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/aura-classroom/livepoll/internal/history"
	"github.com/aura-classroom/livepoll/internal/lifecycle"
	"github.com/aura-classroom/livepoll/internal/models"
	"github.com/aura-classroom/livepoll/internal/roster"
	"github.com/aura-classroom/livepoll/internal/tally"
)

// MaxNameLength bounds a student's display name, in characters.
const MaxNameLength = 50

// Options configures a Coordinator. Zero values are replaced by defaults.
type Options struct {
	Clock      clock.Clock
	Limits     lifecycle.Limits
	History    *history.Log
	Dispatcher Dispatcher
	Logger     *zap.Logger
}

// State is a read-only snapshot of the session.
type State struct {
	Status      string               `json:"status"`
	CurrentPoll *models.Poll         `json:"currentPoll"`
	Students    []models.StudentView `json:"students"`
	HasTeacher  bool                 `json:"hasTeacher"`
}

// Coordinator owns the session. All methods are safe for concurrent use; each
// runs to completion before the next starts, including timer expiry.
type Coordinator struct {
	mu         sync.Mutex
	roster     *roster.Roster
	lifecycle  *lifecycle.Lifecycle
	history    *history.Log
	dispatcher Dispatcher
	logger     *zap.Logger

	teacherConn string
	students    map[string]string // connID -> studentID
}

// New creates a coordinator with no teacher, no students and no poll.
func New(opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Limits == (lifecycle.Limits{}) {
		opts.Limits = lifecycle.DefaultLimits()
	}
	if opts.History == nil {
		opts.History = history.NewLog(nil)
	}
	c := &Coordinator{
		roster:     roster.New(),
		history:    opts.History,
		dispatcher: opts.Dispatcher,
		logger:     opts.Logger,
		students:   make(map[string]string),
	}
	c.lifecycle = lifecycle.New(opts.Clock, opts.Limits, c.expire, opts.Logger)
	return c
}

// TeacherJoin registers connID as the teacher, replacing any previous one,
// and replies with the current poll and roster.
func (c *Coordinator) TeacherJoin(connID string) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.teacherConn != "" && c.teacherConn != connID {
		c.logger.Info("teacher replaced", zap.String("previous_conn", c.teacherConn), zap.String("conn_id", connID))
	}
	c.teacherConn = connID
	c.logger.Info("teacher joined", zap.String("conn_id", connID))

	return c.emit(direct(connID, EventPollState, TeacherState{
		CurrentPoll: c.lifecycle.Current().Poll,
		Students:    c.roster.Snapshot(),
	}))
}

// StudentJoin adds a student for connID and returns the new student id. A
// connection that was already a student is replaced by the new entry.
func (c *Coordinator) StudentJoin(connID, name string) (string, []Notification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		err := fmt.Errorf("%w: name must be 1 to %d characters", ErrInvalidJoin, MaxNameLength)
		return "", c.emit(direct(connID, EventError, ErrorMessage{Message: err.Error()})), err
	}

	var notes []Notification
	if prev, ok := c.students[connID]; ok {
		notes = append(notes, c.removeStudent(prev)...)
	}

	id := c.roster.Add(name, connID)
	c.students[connID] = id
	st, _ := c.roster.Get(id)
	c.logger.Info("student joined", zap.String("student_id", id), zap.String("name", name), zap.String("conn_id", connID))

	notes = append(notes, c.toTeacher(EventStudentJoined, models.StudentView{ID: id, Name: st.Name, HasAnswered: st.HasAnswered})...)
	notes = append(notes, direct(connID, EventPollState, StudentState{CurrentPoll: c.lifecycle.Current().Poll}))
	return id, c.emit(notes...), nil
}

// CreatePoll starts a new poll on behalf of the teacher at connID.
func (c *Coordinator) CreatePoll(connID string, req lifecycle.Request) (*models.Poll, []Notification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.authorize(connID); err != nil {
		return nil, c.reject(connID, "create-poll", err), err
	}
	req, err := c.lifecycle.Validate(req)
	if err != nil {
		return nil, c.reject(connID, "create-poll", err), err
	}
	allAnswered := c.roster.AllAnswered()
	if !c.lifecycle.CanCreate(allAnswered) {
		return nil, c.reject(connID, "create-poll", ErrPollInProgress), ErrPollInProgress
	}

	// A poll can still be active here only when nobody is left to answer it;
	// close it properly so it reaches history.
	notes := c.endPoll("superseded")

	p, err := c.lifecycle.Create(req, allAnswered)
	if err != nil {
		c.emit(notes...)
		return nil, append(notes, c.reject(connID, "create-poll", err)...), err
	}
	c.roster.ResetAnswers()
	c.logger.Info("poll created",
		zap.String("poll_id", p.ID),
		zap.String("question", p.Question),
		zap.Int("options", len(p.Options)),
		zap.Int("timer_seconds", p.TimerSeconds),
	)
	notes = append(notes, broadcast(EventNewPoll, p))
	return p, c.emit(notes...), nil
}

// SubmitAnswer records the answer of the student at connID.
func (c *Coordinator) SubmitAnswer(connID string, optionIndex int) ([]Notification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	studentID, ok := c.students[connID]
	if !ok {
		c.logger.Debug("answer from unknown connection", zap.String("conn_id", connID))
		return nil, ErrUnknownTarget
	}
	p, active := c.lifecycle.ActivePoll()
	if !active {
		return nil, ErrAnswerRejected
	}
	if optionIndex < 0 || optionIndex >= len(p.Options) {
		err := fmt.Errorf("%w: %d", ErrInvalidAnswer, optionIndex)
		return c.emit(direct(connID, EventError, ErrorMessage{Message: err.Error()})), err
	}
	if !c.roster.RecordAnswer(studentID, optionIndex) {
		return nil, ErrAnswerRejected
	}

	st, _ := c.roster.Get(studentID)
	c.logger.Info("student answered", zap.String("student_id", studentID), zap.String("poll_id", p.ID), zap.Int("option", optionIndex))
	notes := c.toTeacher(EventStudentAnswered, StudentAnswered{StudentID: studentID, Name: st.Name})
	if c.roster.AllAnswered() {
		notes = append(notes, c.endPoll("all answered")...)
	}
	return c.emit(notes...), nil
}

// KickStudent removes studentID on behalf of the teacher at connID. The kicked
// connection is told so and any later commands from it are ignored.
func (c *Coordinator) KickStudent(connID, studentID string) ([]Notification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.authorize(connID); err != nil {
		return c.reject(connID, "kick-student", err), err
	}
	st, ok := c.roster.Get(studentID)
	if !ok {
		c.logger.Warn("kick of unknown student", zap.String("student_id", studentID))
		return nil, ErrUnknownTarget
	}

	notes := []Notification{direct(st.ConnID, EventKicked, nil)}
	notes = append(notes, c.removeStudent(studentID)...)
	c.logger.Info("student kicked", zap.String("student_id", studentID), zap.String("name", st.Name))
	notes = append(notes, c.endIfAllAnswered()...)
	return c.emit(notes...), nil
}

// EndPoll stops the active poll early on behalf of the teacher at connID.
func (c *Coordinator) EndPoll(connID string) ([]Notification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.authorize(connID); err != nil {
		return c.reject(connID, "end-poll", err), err
	}
	notes := c.endPoll("stopped by teacher")
	if len(notes) == 0 {
		return c.reject(connID, "end-poll", ErrNoActivePoll), ErrNoActivePoll
	}
	return c.emit(notes...), nil
}

// Disconnect cleans up after connID closed. A departing teacher is not
// replaced; a departing student is removed from the roster.
func (c *Coordinator) Disconnect(connID string) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	if connID == c.teacherConn {
		c.teacherConn = ""
		c.logger.Info("teacher disconnected", zap.String("conn_id", connID))
	}
	studentID, ok := c.students[connID]
	if !ok {
		return nil
	}
	notes := c.removeStudent(studentID)
	c.logger.Info("student disconnected", zap.String("student_id", studentID), zap.String("conn_id", connID))
	notes = append(notes, c.endIfAllAnswered()...)
	return c.emit(notes...)
}

// State returns a snapshot of the current poll and roster.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.lifecycle.Current()
	return State{
		Status:      cur.Status.String(),
		CurrentPoll: cur.Poll,
		Students:    c.roster.Snapshot(),
		HasTeacher:  c.teacherConn != "",
	}
}

// History returns every ended poll, oldest first.
func (c *Coordinator) History() []*models.Poll {
	return c.history.List()
}

// IsTeacher reports whether connID is the registered teacher.
func (c *Coordinator) IsTeacher(connID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return connID != "" && connID == c.teacherConn
}

// Shutdown cancels the poll timer. The session is not usable afterwards.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lifecycle.Shutdown()
}

// expire runs on the timer goroutine.
func (c *Coordinator) expire(pollID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A fire that lost the race against another end path, or that belongs to a
	// poll already replaced, is absorbed here.
	if !c.lifecycle.IsActive(pollID) {
		c.logger.Debug("stale poll timer ignored", zap.String("poll_id", pollID))
		return
	}
	c.emit(c.endPoll("timer expired")...)
}

// endPoll tallies and closes the active poll. It returns nothing if no poll
// is active.
func (c *Coordinator) endPoll(reason string) []Notification {
	p, ok := c.lifecycle.ActivePoll()
	if !ok {
		return nil
	}
	results := tally.Compute(p.Options, c.roster.Answers())
	ended, ok := c.lifecycle.End(results)
	if !ok {
		return nil
	}
	c.roster.Close()
	c.history.Append(ended)
	c.logger.Info("poll ended",
		zap.String("poll_id", ended.ID),
		zap.String("reason", reason),
		zap.Int("votes", tally.Total(results)),
	)
	return []Notification{broadcast(EventPollEnded, PollEnded{Poll: ended, Results: ended.Results})}
}

func (c *Coordinator) endIfAllAnswered() []Notification {
	if _, active := c.lifecycle.ActivePoll(); !active || !c.roster.AllAnswered() {
		return nil
	}
	return c.endPoll("remaining students answered")
}

func (c *Coordinator) removeStudent(studentID string) []Notification {
	st, ok := c.roster.Get(studentID)
	if !ok {
		return nil
	}
	c.roster.Remove(studentID)
	if c.students[st.ConnID] == studentID {
		delete(c.students, st.ConnID)
	}
	return c.toTeacher(EventStudentRemoved, StudentRemoved{StudentID: studentID})
}

func (c *Coordinator) authorize(connID string) error {
	if c.teacherConn == "" || connID != c.teacherConn {
		return ErrUnauthorized
	}
	return nil
}

func (c *Coordinator) reject(connID, command string, err error) []Notification {
	level := c.logger.Debug
	if errors.Is(err, ErrUnauthorized) {
		level = c.logger.Warn
	}
	level("command rejected", zap.String("command", command), zap.String("conn_id", connID), zap.Error(err))
	return c.emit(direct(connID, EventError, ErrorMessage{Message: err.Error()}))
}

func (c *Coordinator) toTeacher(event string, payload any) []Notification {
	if c.teacherConn == "" {
		return nil
	}
	return []Notification{direct(c.teacherConn, event, payload)}
}

// emit hands notes to the dispatcher and returns them.
func (c *Coordinator) emit(notes ...Notification) []Notification {
	if len(notes) > 0 && c.dispatcher != nil {
		c.dispatcher.Dispatch(notes)
	}
	return notes
}
