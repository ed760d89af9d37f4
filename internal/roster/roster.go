// Package roster tracks the students connected to the session and their
// answer state for the active poll.
package roster

import (
	"github.com/google/uuid"

	"github.com/aura-classroom/livepoll/internal/models"
)

// Roster holds connected students keyed by id, in join order.
// It is not safe for concurrent use; the session coordinator serializes access.
type Roster struct {
	students map[string]*models.Student
	order    []string
	open     bool // answers are accepted only while a poll is active
}

// New creates an empty roster.
func New() *Roster {
	return &Roster{students: make(map[string]*models.Student)}
}

// Add inserts a new student bound to connID and returns its id.
func (r *Roster) Add(name, connID string) string {
	id := uuid.NewString()
	r.students[id] = &models.Student{ID: id, Name: name, ConnID: connID}
	r.order = append(r.order, id)
	return id
}

// Remove deletes the student. Removing an unknown id is a no-op.
func (r *Roster) Remove(id string) {
	if _, ok := r.students[id]; !ok {
		return
	}
	delete(r.students, id)
	for i, sid := range r.order {
		if sid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns a copy of the student, or false if absent.
func (r *Roster) Get(id string) (models.Student, bool) {
	s, ok := r.students[id]
	if !ok {
		return models.Student{}, false
	}
	return *s, true
}

// Len returns the number of connected students.
func (r *Roster) Len() int {
	return len(r.students)
}

// RecordAnswer stores the student's answer. It reports whether the answer took
// effect: the student must exist, not have answered yet, and answers must be open.
func (r *Roster) RecordAnswer(id string, option int) bool {
	s, ok := r.students[id]
	if !ok || !r.open || s.HasAnswered {
		return false
	}
	s.HasAnswered = true
	s.Answer = &option
	return true
}

// ResetAnswers clears every student's answer and opens answering for a new poll.
func (r *Roster) ResetAnswers() {
	for _, s := range r.students {
		s.HasAnswered = false
		s.Answer = nil
	}
	r.open = true
}

// Close stops accepting answers. Recorded answers are kept for display.
func (r *Roster) Close() {
	r.open = false
}

// AllAnswered reports whether no student is still to answer.
// It is vacuously true for an empty roster.
func (r *Roster) AllAnswered() bool {
	for _, s := range r.students {
		if !s.HasAnswered {
			return false
		}
	}
	return true
}

// Answers returns the recorded option indices in join order.
func (r *Roster) Answers() []int {
	out := make([]int, 0, len(r.order))
	for _, id := range r.order {
		if s := r.students[id]; s.HasAnswered && s.Answer != nil {
			out = append(out, *s.Answer)
		}
	}
	return out
}

// Snapshot returns the teacher-facing view of the roster in join order.
func (r *Roster) Snapshot() []models.StudentView {
	out := make([]models.StudentView, 0, len(r.order))
	for _, id := range r.order {
		s := r.students[id]
		out = append(out, models.StudentView{ID: s.ID, Name: s.Name, HasAnswered: s.HasAnswered})
	}
	return out
}
