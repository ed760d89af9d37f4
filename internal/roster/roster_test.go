package roster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-classroom/livepoll/internal/roster"
)

func TestAddAndSnapshotOrder(t *testing.T) {
	r := roster.New()
	a := r.Add("Ada", "c1")
	b := r.Add("Bo", "c2")
	c := r.Add("Cy", "c3")

	require.NotEqual(t, a, b)
	require.Equal(t, 3, r.Len())

	snap := r.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []string{a, b, c}, []string{snap[0].ID, snap[1].ID, snap[2].ID})
	assert.Equal(t, "Bo", snap[1].Name)
	for _, s := range snap {
		assert.False(t, s.HasAnswered)
	}

	st, ok := r.Get(b)
	require.True(t, ok)
	assert.Equal(t, "c2", st.ConnID)
}

func TestRemoveIsIdempotent(t *testing.T) {
	r := roster.New()
	a := r.Add("Ada", "c1")
	b := r.Add("Bo", "c2")

	r.Remove(a)
	r.Remove(a)
	r.Remove("missing")

	assert.Equal(t, 1, r.Len())
	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, b, snap[0].ID)
	_, ok := r.Get(a)
	assert.False(t, ok)
}

func TestRecordAnswer(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *roster.Roster, id string)
		id    func(id string) string
		want  bool
	}{
		{
			name:  "closed roster rejects",
			setup: func(r *roster.Roster, id string) {},
			id:    func(id string) string { return id },
			want:  false,
		},
		{
			name:  "open roster accepts",
			setup: func(r *roster.Roster, id string) { r.ResetAnswers() },
			id:    func(id string) string { return id },
			want:  true,
		},
		{
			name: "second answer rejected",
			setup: func(r *roster.Roster, id string) {
				r.ResetAnswers()
				r.RecordAnswer(id, 0)
			},
			id:   func(id string) string { return id },
			want: false,
		},
		{
			name:  "unknown student rejected",
			setup: func(r *roster.Roster, id string) { r.ResetAnswers() },
			id:    func(string) string { return "nobody" },
			want:  false,
		},
		{
			name: "closed after poll end",
			setup: func(r *roster.Roster, id string) {
				r.ResetAnswers()
				r.Close()
			},
			id:   func(id string) string { return id },
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := roster.New()
			id := r.Add("Ada", "c1")
			tt.setup(r, id)
			assert.Equal(t, tt.want, r.RecordAnswer(tt.id(id), 1))
		})
	}
}

func TestSecondAnswerKeepsFirst(t *testing.T) {
	r := roster.New()
	id := r.Add("Ada", "c1")
	r.ResetAnswers()

	require.True(t, r.RecordAnswer(id, 1))
	require.False(t, r.RecordAnswer(id, 0))

	assert.Equal(t, []int{1}, r.Answers())
}

func TestResetAnswersClearsEveryone(t *testing.T) {
	r := roster.New()
	ids := []string{r.Add("a", "1"), r.Add("b", "2"), r.Add("c", "3")}
	r.ResetAnswers()
	for i, id := range ids {
		require.True(t, r.RecordAnswer(id, i))
	}
	require.True(t, r.AllAnswered())

	r.ResetAnswers()

	for _, id := range ids {
		s, ok := r.Get(id)
		require.True(t, ok)
		assert.False(t, s.HasAnswered)
		assert.Nil(t, s.Answer)
	}
	assert.Empty(t, r.Answers())
	assert.False(t, r.AllAnswered())
}

func TestAllAnswered(t *testing.T) {
	r := roster.New()
	assert.True(t, r.AllAnswered(), "empty roster is vacuously answered")

	a := r.Add("a", "1")
	b := r.Add("b", "2")
	r.ResetAnswers()
	assert.False(t, r.AllAnswered())

	r.RecordAnswer(a, 0)
	assert.False(t, r.AllAnswered())

	r.Remove(b)
	assert.True(t, r.AllAnswered())
}
