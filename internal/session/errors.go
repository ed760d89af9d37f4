package session

import (
	"errors"

	"github.com/aura-classroom/livepoll/internal/lifecycle"
)

var (
	// ErrInvalidPollRequest is returned for a malformed create-poll request.
	ErrInvalidPollRequest = lifecycle.ErrInvalidPollRequest
	// ErrPollInProgress is returned when a poll can't be replaced yet.
	ErrPollInProgress = lifecycle.ErrPollInProgress
	// ErrUnauthorized is returned when a non-teacher sends a teacher command.
	ErrUnauthorized = errors.New("only the teacher can do that")
	// ErrUnknownTarget is returned when a command names a student or connection that is gone.
	ErrUnknownTarget = errors.New("unknown student")
	// ErrInvalidJoin is returned for a join-as-student with an unusable name.
	ErrInvalidJoin = errors.New("invalid name")
	// ErrInvalidAnswer is returned for an option index outside the active poll.
	ErrInvalidAnswer = errors.New("invalid option")
	// ErrAnswerRejected is returned when an answer does not count: no active
	// poll, or the student already answered.
	ErrAnswerRejected = errors.New("answer not accepted")
	// ErrNoActivePoll is returned by an explicit end with nothing to end.
	ErrNoActivePoll = errors.New("no active poll")
)
