package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aura-classroom/livepoll/internal/lifecycle"
	"github.com/aura-classroom/livepoll/internal/models"
	"github.com/aura-classroom/livepoll/internal/session"
)

// Inbound event names.
const (
	CommandJoinTeacher = "join-as-teacher"
	CommandJoinStudent = "join-as-student"
	CommandCreatePoll  = "create-poll"
	CommandSubmit      = "submit-answer"
	CommandKick        = "kick-student"
	CommandEndPoll     = "end-poll"
)

var (
	// ErrUnknownCommand is returned for an event name the server doesn't handle.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrBadPayload is returned when a command's data can't be decoded.
	ErrBadPayload = errors.New("malformed payload")
)

// Session is the part of the session coordinator the transport drives.
type Session interface {
	TeacherJoin(connID string) []session.Notification
	StudentJoin(connID, name string) (string, []session.Notification, error)
	CreatePoll(connID string, req lifecycle.Request) (*models.Poll, []session.Notification, error)
	SubmitAnswer(connID string, optionIndex int) ([]session.Notification, error)
	KickStudent(connID, studentID string) ([]session.Notification, error)
	EndPoll(connID string) ([]session.Notification, error)
	Disconnect(connID string) []session.Notification
}

type joinStudentPayload struct {
	Name string `json:"name"`
}

type createPollPayload struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	Timer        *int     `json:"timer"`
	TimerSeconds *int     `json:"timerSeconds"`
}

type submitAnswerPayload struct {
	OptionIndex *int `json:"optionIndex"`
}

type kickStudentPayload struct {
	StudentID string `json:"studentId"`
}

// HandleCommand decodes msg and applies it to sess on behalf of connID.
// Rejections by the session are reported to the client through session
// notifications; the returned error is for logging.
func HandleCommand(sess Session, connID string, msg WSMessage) error {
	switch msg.Event {
	case CommandJoinTeacher:
		sess.TeacherJoin(connID)
		return nil

	case CommandJoinStudent:
		var p joinStudentPayload
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		_, _, err := sess.StudentJoin(connID, p.Name)
		return err

	case CommandCreatePoll:
		var p createPollPayload
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		req := lifecycle.Request{Question: p.Question, Options: p.Options}
		switch {
		case p.TimerSeconds != nil:
			req.TimerSeconds = *p.TimerSeconds
		case p.Timer != nil:
			req.TimerSeconds = *p.Timer
		}
		_, _, err := sess.CreatePoll(connID, req)
		return err

	case CommandSubmit:
		var p submitAnswerPayload
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		if p.OptionIndex == nil {
			return fmt.Errorf("%w: optionIndex is required", ErrBadPayload)
		}
		_, err := sess.SubmitAnswer(connID, *p.OptionIndex)
		return err

	case CommandKick:
		var p kickStudentPayload
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		if p.StudentID == "" {
			return fmt.Errorf("%w: studentId is required", ErrBadPayload)
		}
		_, err := sess.KickStudent(connID, p.StudentID)
		return err

	case CommandEndPoll:
		_, err := sess.EndPoll(connID)
		return err

	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, msg.Event)
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", ErrBadPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}
