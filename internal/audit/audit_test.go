package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comanda-erp/comanda/internal/rbac"
	"github.com/comanda-erp/comanda/internal/shared"
)

type fakeQueue struct {
	events []Event
	err    error
	ctxErr error
}

func (q *fakeQueue) EnqueueAuthEvent(ctx context.Context, event Event) error {
	q.ctxErr = ctx.Err()
	q.events = append(q.events, event)
	return q.err
}

func newTestPublisher(q *fakeQueue) *Publisher {
	p := NewPublisher(q, nil)
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("BRT", -3*3600)) }
	return p
}

func TestPublisherEmitsEvents(t *testing.T) {
	q := &fakeQueue{}
	p := newTestPublisher(q)
	manager := rbac.NewPrincipal(rbac.PrincipalParams{ID: "2", Name: "Maria", Email: "gerente@restaurante.com", Role: rbac.RoleManager, IsActive: true}, rbac.DefaultRegistry())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p.LoginSucceeded(ctx, "c1", manager)
	p.LoginFailed(ctx, "c1", "x@restaurante.com", shared.ErrUnknownIdentity)
	p.LoginFailed(ctx, "c1", "x@restaurante.com", shared.ErrInvalidCredentials)
	p.LoginFailed(ctx, "c1", "x@restaurante.com", errors.New("db down"))
	p.LoggedOut(ctx, "c1", manager)
	p.RestoreDiscarded(ctx, "c1", errors.New("corrupt record"))

	require.Len(t, q.events, 6)
	assert.NoError(t, q.ctxErr, "enqueue must not inherit request cancellation")

	first := q.events[0]
	assert.Equal(t, KindLoginSucceeded, first.Kind)
	assert.Equal(t, "2", first.UserID)
	assert.Equal(t, "gerente", first.Role)
	assert.Equal(t, time.UTC, first.At.Location())
	assert.NoError(t, first.Validate())

	assert.Equal(t, "unknown_identity", q.events[1].Reason)
	assert.Equal(t, "invalid_credentials", q.events[2].Reason)
	assert.Equal(t, "error", q.events[3].Reason)
	assert.Equal(t, KindLoggedOut, q.events[4].Kind)
	assert.Equal(t, "corrupt record", q.events[5].Reason)

	seen := map[uuid.UUID]bool{}
	for _, e := range q.events {
		assert.False(t, seen[e.ID], "event ids must be unique")
		seen[e.ID] = true
	}
}

func TestPublisherSwallowsQueueErrors(t *testing.T) {
	q := &fakeQueue{err: errors.New("redis unavailable")}
	p := newTestPublisher(q)
	assert.NotPanics(t, func() { p.LoginFailed(context.Background(), "c1", "a@b.com", shared.ErrInvalidCredentials) })

	var nilPublisher *Publisher
	assert.NotPanics(t, func() { nilPublisher.LoggedOut(context.Background(), "c1", nil) })
}

func TestEventValidate(t *testing.T) {
	valid := Event{ID: uuid.New(), Kind: KindLoggedOut, ClientID: "c1", At: time.Now()}
	assert.NoError(t, valid.Validate())

	for name, mutate := range map[string]func(*Event){
		"kind":   func(e *Event) { e.Kind = "password_reset" },
		"id":     func(e *Event) { e.ID = uuid.Nil },
		"client": func(e *Event) { e.ClientID = "" },
		"time":   func(e *Event) { e.At = time.Time{} },
	} {
		e := valid
		mutate(&e)
		assert.Error(t, e.Validate(), name)
	}
}

func TestRecorderRequiresPool(t *testing.T) {
	var r *Recorder
	assert.Error(t, r.Record(context.Background(), Event{}))
	_, err := NewRecorder(nil).Purge(context.Background(), time.Now())
	assert.Error(t, err)
}
