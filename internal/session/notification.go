package session

import "github.com/aura-classroom/livepoll/internal/models"

// Outbound event names.
const (
	EventPollState       = "poll-state"
	EventNewPoll         = "new-poll"
	EventPollEnded       = "poll-ended"
	EventStudentJoined   = "student-joined"
	EventStudentAnswered = "student-answered"
	EventStudentRemoved  = "student-removed"
	EventKicked          = "kicked"
	EventError           = "error"
)

// Audience selects the recipients of a notification.
type Audience int

const (
	// Direct delivers to the single connection in Notification.ConnID.
	Direct Audience = iota
	// Everyone delivers to every open connection.
	Everyone
)

// Notification is one outbound event produced by the coordinator.
type Notification struct {
	Audience Audience
	ConnID   string
	Event    string
	Payload  any
}

// Dispatcher fans notifications out over the transport. It is called while
// the coordinator holds its lock and must not block or call back into it.
type Dispatcher interface {
	Dispatch(notes []Notification)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(notes []Notification)

// Dispatch calls f(notes).
func (f DispatcherFunc) Dispatch(notes []Notification) { f(notes) }

// TeacherState is the poll-state payload sent to the teacher.
type TeacherState struct {
	CurrentPoll *models.Poll         `json:"currentPoll"`
	Students    []models.StudentView `json:"students"`
}

// StudentState is the poll-state payload sent to a joining student.
type StudentState struct {
	CurrentPoll *models.Poll `json:"currentPoll"`
}

// PollEnded is the poll-ended payload.
type PollEnded struct {
	Poll    *models.Poll    `json:"poll"`
	Results []models.Result `json:"results"`
}

// StudentAnswered is the student-answered payload.
type StudentAnswered struct {
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
}

// StudentRemoved is the student-removed payload.
type StudentRemoved struct {
	StudentID string `json:"studentId"`
}

// ErrorMessage is the error payload.
type ErrorMessage struct {
	Message string `json:"message"`
}

func direct(connID, event string, payload any) Notification {
	return Notification{Audience: Direct, ConnID: connID, Event: event, Payload: payload}
}

func broadcast(event string, payload any) Notification {
	return Notification{Audience: Everyone, Event: event, Payload: payload}
}
