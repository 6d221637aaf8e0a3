package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comanda-erp/comanda/internal/platform/kv"
)

// ScopeFunc returns the key-value namespace of one client.
type ScopeFunc func(clientID string) kv.Store

// ManagerConfig groups the dependencies of a Manager.
type ManagerConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	Scope      ScopeFunc
	Store      StoreConfig
	Logger     *slog.Logger
}

// Manager ties browser cookies to per-client stores. A store is restored from
// its persisted record the first time its client is seen.
type Manager struct {
	cookieName string
	ttl        time.Duration
	secure     bool
	scope      ScopeFunc
	template   StoreConfig
	logger     *slog.Logger
	now        func() time.Time

	mu     sync.Mutex
	stores map[string]*managedStore
}

type managedStore struct {
	store    *Store
	restore  sync.Once
	lastSeen time.Time
}

// NewManager constructs a Manager.
func NewManager(cfg ManagerConfig) *Manager {
	scope := cfg.Scope
	if scope == nil {
		mem := kv.NewMemory()
		scope = func(clientID string) kv.Store { return mem.Scoped("client:" + clientID + ":") }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Store.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
		scope:      scope,
		template:   cfg.Store,
		logger:     logger,
		now:        now,
		stores:     make(map[string]*managedStore),
	}
}

// CookieName returns the cookie identifier used for sessions.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// TTL exposes the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Load returns the store for the requesting client, issuing a new client
// cookie when the request carries none or an invalid one.
func (m *Manager) Load(ctx context.Context, w http.ResponseWriter, r *http.Request) *Store {
	clientID := ""
	if cookie, err := r.Cookie(m.cookieName); err == nil {
		if id, parseErr := uuid.Parse(cookie.Value); parseErr == nil {
			clientID = id.String()
		}
	}
	if clientID == "" {
		clientID = uuid.NewString()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    clientID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  m.now().Add(m.ttl),
	})
	return m.Store(ctx, clientID)
}

// Store returns the store of clientID, creating and restoring it on first use.
func (m *Manager) Store(ctx context.Context, clientID string) *Store {
	m.mu.Lock()
	entry, ok := m.stores[clientID]
	if !ok {
		cfg := m.template
		cfg.ID = clientID
		cfg.KV = m.scope(clientID)
		entry = &managedStore{store: NewStore(cfg)}
		m.stores[clientID] = entry
	}
	entry.lastSeen = m.now()
	m.mu.Unlock()

	entry.restore.Do(func() {
		entry.store.Restore(ctx)
	})
	return entry.store
}

// Len returns the number of stores held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}

// Prune drops in-memory stores idle for longer than idle. Persisted records
// stay untouched, so a pruned client is restored on its next request.
func (m *Manager) Prune(idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	m.mu.Lock()
	defer m.mu.Unlock()
	pruned := 0
	for id, entry := range m.stores {
		if entry.lastSeen.Before(cutoff) {
			delete(m.stores, id)
			pruned++
		}
	}
	return pruned
}

// RunJanitor prunes idle stores every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Prune(idle); n > 0 {
				m.logger.Debug("session stores pruned", slog.Int("count", n))
			}
		}
	}
}
