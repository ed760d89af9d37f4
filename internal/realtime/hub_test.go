package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-classroom/livepoll/internal/session"
)

func testClient(h *Hub, id string, buf int) *Client {
	c := &Client{ID: id, hub: h, send: make(chan WSMessage, buf)}
	h.Register(c)
	return c
}

func drain(c *Client) []WSMessage {
	var out []WSMessage
	for {
		select {
		case m, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestDispatchRouting(t *testing.T) {
	h := NewHub(nil, nil)
	teacher := testClient(h, "t1", 8)
	s1 := testClient(h, "s1", 8)
	s2 := testClient(h, "s2", 8)

	h.Dispatch([]session.Notification{
		{Audience: session.Direct, ConnID: "t1", Event: session.EventStudentJoined, Payload: map[string]string{"id": "x"}},
		{Audience: session.Everyone, Event: session.EventNewPoll, Payload: map[string]string{"question": "Q"}},
		{Audience: session.Direct, ConnID: "gone", Event: session.EventKicked},
	})

	tm := drain(teacher)
	require.Len(t, tm, 2)
	assert.Equal(t, session.EventStudentJoined, tm[0].Event)
	assert.JSONEq(t, `{"id":"x"}`, string(tm[0].Data))
	assert.Equal(t, session.EventNewPoll, tm[1].Event)

	for _, c := range []*Client{s1, s2} {
		msgs := drain(c)
		require.Len(t, msgs, 1)
		assert.Equal(t, session.EventNewPoll, msgs[0].Event)
	}
}

func TestDispatchNeverBlocks(t *testing.T) {
	h := NewHub(nil, nil)
	slow := testClient(h, "slow", 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.Dispatch([]session.Notification{{Audience: session.Everyone, Event: "e"}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked on a full client")
	}
	assert.Len(t, drain(slow), 1)
}

func TestUnregisterClosesSend(t *testing.T) {
	h := NewHub(nil, nil)
	c := testClient(h, "c1", 1)
	require.Equal(t, 1, h.Count())

	h.Unregister(c)
	h.Unregister(c)

	assert.Equal(t, 0, h.Count())
	_, ok := <-c.send
	assert.False(t, ok)

	h.Dispatch([]session.Notification{{Audience: session.Direct, ConnID: "c1", Event: "e"}})
}

type fakeFeed struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (f *fakeFeed) PublishEvent(_ context.Context, event string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event+":"+string(payload))
	return f.err
}

func (f *fakeFeed) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func TestRunPublishesBroadcastsOnly(t *testing.T) {
	feed := &fakeFeed{}
	h := NewHub(nil, feed)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	h.Dispatch([]session.Notification{
		{Audience: session.Direct, ConnID: "t1", Event: session.EventStudentJoined, Payload: 1},
		{Audience: session.Everyone, Event: session.EventNewPoll, Payload: 2},
		{Audience: session.Everyone, Event: session.EventPollEnded, Payload: 3},
	})

	require.Eventually(t, func() bool { return len(feed.published()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"new-poll:2", "poll-ended:3"}, feed.published())
}

func TestRunSurvivesPublishErrors(t *testing.T) {
	feed := &fakeFeed{err: errors.New("down")}
	h := NewHub(nil, feed)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	h.Dispatch([]session.Notification{{Audience: session.Everyone, Event: "a", Payload: json.RawMessage(`1`)}})
	h.Dispatch([]session.Notification{{Audience: session.Everyone, Event: "b", Payload: json.RawMessage(`2`)}})

	require.Eventually(t, func() bool { return len(feed.published()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestRunWithoutFeedReturns(t *testing.T) {
	h := NewHub(nil, nil)
	done := make(chan struct{})
	go func() {
		h.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run without feed should return")
	}
}
