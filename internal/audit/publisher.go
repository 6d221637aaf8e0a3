package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/comanda-erp/comanda/internal/rbac"
	"github.com/comanda-erp/comanda/internal/session"
	"github.com/comanda-erp/comanda/internal/shared"
)

// Enqueuer hands events to the background queue.
type Enqueuer interface {
	EnqueueAuthEvent(ctx context.Context, event Event) error
}

// Publisher turns session transitions into audit events. Publishing never
// blocks a login for longer than the enqueue timeout and never fails it.
type Publisher struct {
	queue   Enqueuer
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewPublisher constructs a Publisher.
func NewPublisher(queue Enqueuer, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{queue: queue, logger: logger, timeout: 2 * time.Second, now: time.Now}
}

func (p *Publisher) LoginSucceeded(ctx context.Context, clientID string, principal *rbac.Principal) {
	p.publish(ctx, principalEvent(KindLoginSucceeded, clientID, principal))
}

func (p *Publisher) LoginFailed(ctx context.Context, clientID, email string, err error) {
	p.publish(ctx, Event{
		Kind:     KindLoginFailed,
		ClientID: clientID,
		Email:    email,
		Reason:   failureReason(err),
	})
}

func (p *Publisher) LoggedOut(ctx context.Context, clientID string, principal *rbac.Principal) {
	p.publish(ctx, principalEvent(KindLoggedOut, clientID, principal))
}

func (p *Publisher) RestoreDiscarded(ctx context.Context, clientID string, reason error) {
	event := Event{Kind: KindRestoreDiscarded, ClientID: clientID}
	if reason != nil {
		event.Reason = reason.Error()
	}
	p.publish(ctx, event)
}

func (p *Publisher) publish(ctx context.Context, event Event) {
	if p == nil || p.queue == nil {
		return
	}
	event.ID = uuid.New()
	event.At = p.now().UTC()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.queue.EnqueueAuthEvent(ctx, event); err != nil {
		p.logger.Warn("audit enqueue", slog.String("kind", string(event.Kind)), slog.Any("error", err))
	}
}

func principalEvent(kind Kind, clientID string, principal *rbac.Principal) Event {
	return Event{
		Kind:     kind,
		ClientID: clientID,
		UserID:   principal.ID(),
		Email:    principal.Email(),
		Role:     principal.Role().String(),
	}
}

// failureReason keeps credential details out of the trail.
func failureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, shared.ErrUnknownIdentity):
		return "unknown_identity"
	case errors.Is(err, shared.ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "error"
	}
}

var _ session.Observer = (*Publisher)(nil)
