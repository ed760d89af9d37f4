package realtime_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-classroom/livepoll/internal/lifecycle"
	"github.com/aura-classroom/livepoll/internal/models"
	"github.com/aura-classroom/livepoll/internal/realtime"
	"github.com/aura-classroom/livepoll/internal/session"
)

type call struct {
	method string
	conn   string
	args   []any
}

type fakeSession struct {
	calls []call
}

func (f *fakeSession) record(method, conn string, args ...any) {
	f.calls = append(f.calls, call{method: method, conn: conn, args: args})
}

func (f *fakeSession) TeacherJoin(connID string) []session.Notification {
	f.record("TeacherJoin", connID)
	return nil
}

func (f *fakeSession) StudentJoin(connID, name string) (string, []session.Notification, error) {
	f.record("StudentJoin", connID, name)
	return "id", nil, nil
}

func (f *fakeSession) CreatePoll(connID string, req lifecycle.Request) (*models.Poll, []session.Notification, error) {
	f.record("CreatePoll", connID, req)
	return &models.Poll{}, nil, nil
}

func (f *fakeSession) SubmitAnswer(connID string, optionIndex int) ([]session.Notification, error) {
	f.record("SubmitAnswer", connID, optionIndex)
	return nil, nil
}

func (f *fakeSession) KickStudent(connID, studentID string) ([]session.Notification, error) {
	f.record("KickStudent", connID, studentID)
	return nil, nil
}

func (f *fakeSession) EndPoll(connID string) ([]session.Notification, error) {
	f.record("EndPoll", connID)
	return nil, nil
}

func (f *fakeSession) Disconnect(connID string) []session.Notification {
	f.record("Disconnect", connID)
	return nil
}

func TestHandleCommand(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		data    string
		want    *call
		wantErr error
	}{
		{name: "join teacher", event: "join-as-teacher", want: &call{method: "TeacherJoin", conn: "c1"}},
		{name: "join student", event: "join-as-student", data: `{"name":"Ada"}`, want: &call{method: "StudentJoin", conn: "c1", args: []any{"Ada"}}},
		{
			name:  "create poll with timer",
			event: "create-poll",
			data:  `{"question":"Q","options":["A","B"],"timer":45}`,
			want:  &call{method: "CreatePoll", conn: "c1", args: []any{lifecycle.Request{Question: "Q", Options: []string{"A", "B"}, TimerSeconds: 45}}},
		},
		{
			name:  "create poll with timerSeconds",
			event: "create-poll",
			data:  `{"question":"Q","options":["A","B"],"timerSeconds":20,"timer":45}`,
			want:  &call{method: "CreatePoll", conn: "c1", args: []any{lifecycle.Request{Question: "Q", Options: []string{"A", "B"}, TimerSeconds: 20}}},
		},
		{
			name:  "create poll without timer",
			event: "create-poll",
			data:  `{"question":"Q","options":["A","B"]}`,
			want:  &call{method: "CreatePoll", conn: "c1", args: []any{lifecycle.Request{Question: "Q", Options: []string{"A", "B"}}}},
		},
		{name: "submit answer zero", event: "submit-answer", data: `{"optionIndex":0}`, want: &call{method: "SubmitAnswer", conn: "c1", args: []any{0}}},
		{name: "submit answer missing index", event: "submit-answer", data: `{}`, wantErr: realtime.ErrBadPayload},
		{name: "submit answer wrong type", event: "submit-answer", data: `{"optionIndex":"one"}`, wantErr: realtime.ErrBadPayload},
		{name: "kick", event: "kick-student", data: `{"studentId":"s-1"}`, want: &call{method: "KickStudent", conn: "c1", args: []any{"s-1"}}},
		{name: "kick without id", event: "kick-student", data: `{}`, wantErr: realtime.ErrBadPayload},
		{name: "end poll", event: "end-poll", want: &call{method: "EndPoll", conn: "c1"}},
		{name: "missing data", event: "join-as-student", wantErr: realtime.ErrBadPayload},
		{name: "unknown", event: "dance", wantErr: realtime.ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &fakeSession{}
			msg := realtime.WSMessage{Event: tt.event}
			if tt.data != "" {
				msg.Data = json.RawMessage(tt.data)
			}

			err := realtime.HandleCommand(sess, "c1", msg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, sess.calls)
				return
			}
			require.NoError(t, err)
			require.Len(t, sess.calls, 1)
			got := sess.calls[0]
			assert.Equal(t, tt.want.method, got.method)
			assert.Equal(t, tt.want.conn, got.conn)
			if tt.want.args != nil {
				assert.Equal(t, tt.want.args, got.args)
			}
		})
	}
}
