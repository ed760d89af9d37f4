package models

// Student is a connected participant. ConnID is the transport connection the
// student joined from; Answer is nil until the student answers the active poll.
type Student struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ConnID      string `json:"-"`
	HasAnswered bool   `json:"hasAnswered"`
	Answer      *int   `json:"answer,omitempty"`
}

// StudentView is the roster entry shown to the teacher.
type StudentView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	HasAnswered bool   `json:"hasAnswered"`
}
