package history_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-classroom/livepoll/internal/history"
	"github.com/aura-classroom/livepoll/internal/models"
)

type recordingRecorder struct {
	mu    sync.Mutex
	polls []*models.Poll
}

func (r *recordingRecorder) Record(p *models.Poll) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls = append(r.polls, p)
}

func endedPoll(id, question string) *models.Poll {
	ended := time.Date(2026, 3, 1, 10, 0, 30, 0, time.UTC)
	return &models.Poll{
		ID:           id,
		Question:     question,
		Options:      []string{"Red", "Blue"},
		TimerSeconds: 30,
		CreatedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		EndedAt:      &ended,
		Results: []models.Result{
			{Option: "Red", Count: 2, Percentage: 100},
			{Option: "Blue", Count: 0, Percentage: 0},
		},
	}
}

func TestLogAppendOrder(t *testing.T) {
	log := history.NewLog(nil)
	assert.Empty(t, log.List())

	log.Append(endedPoll("p1", "first"))
	log.Append(endedPoll("p2", "second"))
	log.Append(nil)

	list := log.List()
	require.Len(t, list, 2)
	assert.Equal(t, "p1", list[0].ID)
	assert.Equal(t, "p2", list[1].ID)
	assert.Equal(t, 2, log.Len())
}

func TestLogEntriesAreSnapshots(t *testing.T) {
	log := history.NewLog(nil)
	p := endedPoll("p1", "q")
	log.Append(p)

	p.Question = "changed"
	p.Results[0].Count = 99
	list := log.List()
	list[0].Options[0] = "changed"

	again := log.List()
	assert.Equal(t, "q", again[0].Question)
	assert.Equal(t, 2, again[0].Results[0].Count)
	assert.Equal(t, "Red", again[0].Options[0])
}

func TestLogForwardsToRecorder(t *testing.T) {
	rec := &recordingRecorder{}
	log := history.NewLog(rec)

	log.Append(endedPoll("p1", "q"))

	require.Len(t, rec.polls, 1)
	assert.Equal(t, "p1", rec.polls[0].ID)
	rec.polls[0].Question = "changed"
	assert.Equal(t, "q", log.List()[0].Question)
}
