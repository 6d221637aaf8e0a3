package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/comanda-erp/comanda/internal/platform/kv"
	"github.com/comanda-erp/comanda/internal/rbac"
	"github.com/comanda-erp/comanda/internal/shared"
)

// StoreConfig groups the dependencies of a Store.
type StoreConfig struct {
	ID            string
	KV            kv.Store
	Authenticator Authenticator
	Registry      *rbac.Registry
	Observer      Observer
	Logger        *slog.Logger
	Now           func() time.Time
}

// Store owns the session of one client. It is the only writer of the
// session; readers take immutable snapshots.
type Store struct {
	id       string
	kv       kv.Store
	authn    Authenticator
	registry *rbac.Registry
	observer Observer
	logger   *slog.Logger
	now      func() time.Time

	inflight *semaphore.Weighted
	mu       sync.Mutex
	current  atomic.Pointer[Snapshot]
}

// NewStore constructs a Store in the LoggedOut state.
func NewStore(cfg StoreConfig) *Store {
	s := &Store{
		id:       cfg.ID,
		kv:       cfg.KV,
		authn:    cfg.Authenticator,
		registry: cfg.Registry,
		observer: cfg.Observer,
		logger:   cfg.Logger,
		now:      cfg.Now,
		inflight: semaphore.NewWeighted(1),
	}
	if s.kv == nil {
		s.kv = kv.NewMemory()
	}
	if s.registry == nil {
		s.registry = rbac.DefaultRegistry()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.current.Store(&Snapshot{State: LoggedOut})
	return s
}

// ID returns the client identifier the store belongs to.
func (s *Store) ID() string {
	return s.id
}

// Snapshot returns the current session state.
func (s *Store) Snapshot() Snapshot {
	return *s.current.Load()
}

// Principal is shorthand for Snapshot().Principal.
func (s *Store) Principal() *rbac.Principal {
	return s.Snapshot().Principal
}

// Login authenticates the client. Only one attempt may be in flight; a
// concurrent call fails immediately with shared.ErrLoginInProgress and leaves
// the running attempt untouched. The attempt is not cancelled with ctx: its
// outcome is always applied.
func (s *Store) Login(ctx context.Context, email, credential string) (*rbac.Principal, error) {
	if !s.inflight.TryAcquire(1) {
		return nil, shared.ErrLoginInProgress
	}
	defer s.inflight.Release(1)

	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	previous := s.current.Load().Principal
	s.publish(Snapshot{State: Authenticating})
	s.mu.Unlock()
	if previous != nil {
		s.clearRecord(ctx)
		s.notifyLoggedOut(ctx, previous)
	}

	principal, err := s.authenticate(ctx, email, credential)
	if err != nil {
		s.mu.Lock()
		s.publish(Snapshot{State: LoggedOut})
		s.mu.Unlock()
		if s.observer != nil {
			s.observer.LoginFailed(ctx, s.id, email, err)
		}
		return nil, err
	}

	s.mu.Lock()
	if data, encErr := encodeRecord(principal); encErr != nil {
		s.logger.Error("session encode record", slog.Any("error", encErr))
	} else if setErr := s.kv.Set(ctx, RecordKey, data); setErr != nil {
		s.logger.Warn("session persist record", slog.String("client", s.id), slog.Any("error", setErr))
	}
	s.publish(Snapshot{State: LoggedIn, Principal: principal})
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.LoginSucceeded(ctx, s.id, principal)
	}
	return principal, nil
}

func (s *Store) authenticate(ctx context.Context, email, credential string) (*rbac.Principal, error) {
	if s.authn == nil {
		return nil, errors.New("session: no authenticator configured")
	}
	identity, err := s.authn.Authenticate(ctx, email, credential)
	if err != nil {
		return nil, err
	}
	if !identity.Role.Valid() {
		return nil, fmt.Errorf("session: identity %s has unknown role %q", identity.Email, identity.Role)
	}
	return rbac.NewPrincipal(rbac.PrincipalParams{
		ID:        identity.ID,
		Name:      identity.Name,
		Email:     identity.Email,
		Role:      identity.Role,
		IsActive:  identity.IsActive,
		LastLogin: s.now(),
	}, s.registry), nil
}

// Logout ends the session. Calling it while logged out is a no-op.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	snap := s.current.Load()
	if snap.State == LoggedOut {
		s.mu.Unlock()
		return
	}
	s.publish(Snapshot{State: LoggedOut})
	s.mu.Unlock()

	s.clearRecord(ctx)
	if snap.Principal != nil {
		s.notifyLoggedOut(ctx, snap.Principal)
	}
}

// Restore adopts the persisted record when it is present and viable.
// Anything else discards the record and leaves the store logged out.
func (s *Store) Restore(ctx context.Context) Snapshot {
	data, err := s.kv.Get(ctx, RecordKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.Warn("session read record", slog.String("client", s.id), slog.Any("error", err))
		}
		return s.Snapshot()
	}

	principal, err := decodeRecord(data, s.registry)
	if err != nil {
		s.logger.Info("session record discarded", slog.String("client", s.id), slog.Any("reason", err))
		s.clearRecord(ctx)
		if s.observer != nil {
			s.observer.RestoreDiscarded(ctx, s.id, err)
		}
		return s.Snapshot()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.Load().State != LoggedOut {
		return *s.current.Load()
	}
	snap := Snapshot{State: LoggedIn, Principal: principal}
	s.publish(snap)
	return snap
}

func (s *Store) publish(snap Snapshot) {
	s.current.Store(&snap)
}

func (s *Store) clearRecord(ctx context.Context) {
	if err := s.kv.Delete(ctx, RecordKey); err != nil {
		s.logger.Warn("session clear record", slog.String("client", s.id), slog.Any("error", err))
	}
}

func (s *Store) notifyLoggedOut(ctx context.Context, p *rbac.Principal) {
	if s.observer != nil {
		s.observer.LoggedOut(ctx, s.id, p)
	}
}
