package plesk

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"sslmanager-backend/lib/plesk"
	"sslmanager-backend/lib/timezone"
	"sslmanager-backend/services/plesk/db"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// a cookie this close to expiry is not worth handing out
	sessionSafetyMargin = 30 * time.Second
	// persisted expiry times came from an earlier process; allow for
	// clock skew between runs before trusting them
	persistedSkewMargin = 2 * time.Minute

	sessionInitPath = "/enterprise/rsession_init.php"

	sessionCacheSize = 128
	sessionCacheTTL  = time.Hour
)

type sessionState struct {
	cookie    string
	expiresAt time.Time
}

// SessionManager produces valid panel session cookies, one per host.
// It reuses sessions as long as the remote host considers them alive:
// first from memory, then from the persisted connection record, then
// by matching the stored cookie against the host's live session list.
// Only when all three fail does it perform a fresh browser login.
type SessionManager struct {
	qry      *db.Queries
	registry *Registry
	renderer Renderer

	cache *expirable.LRU[string, sessionState]

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSessionManager(qry *db.Queries, registry *Registry, renderer Renderer) *SessionManager {
	return &SessionManager{
		qry:      qry,
		registry: registry,
		renderer: renderer,
		cache:    expirable.NewLRU[string, sessionState](sessionCacheSize, nil, sessionCacheTTL),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (m *SessionManager) hostLock(host string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[host]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[host] = lock
	}
	return lock
}

// Cookie returns a session cookie for host that is expected to stay
// valid for at least a short while. Refreshes for the same host are
// serialized; other hosts are unaffected.
func (m *SessionManager) Cookie(ctx context.Context, host string) (string, error) {
	lock := m.hostLock(host)
	lock.Lock()
	defer lock.Unlock()

	now := timezone.Now()
	if state, ok := m.cache.Get(host); ok && state.expiresAt.After(now.Add(sessionSafetyMargin)) {
		return state.cookie, nil
	}

	ctx, span := tracer.Start(ctx, "SessionManager.Cookie")
	defer span.End()

	row, err := m.qry.GetConnection(ctx, host)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &NotFoundError{Resource: "connection", Key: host}
	}
	if err != nil {
		return "", err
	}

	if row.SessionCookie != "" {
		persistedExpiry := time.Unix(row.SessionExpiresAt, 0)
		if persistedExpiry.After(now.Add(persistedSkewMargin)) {
			m.cache.Add(host, sessionState{cookie: row.SessionCookie, expiresAt: persistedExpiry})
			return row.SessionCookie, nil
		}
	}

	client, err := m.registry.Client(ctx, host)
	if err != nil {
		return "", err
	}
	info, err := client.Server().Get(ctx)
	if err != nil {
		return "", err
	}

	// the persisted expiry is only our estimate; the remote host may
	// still consider the session alive if something else kept it warm
	if row.SessionCookie != "" {
		live, err := client.Session().Get(ctx)
		if err != nil {
			return "", err
		}
		for _, session := range live {
			if session.ID != row.SessionCookie {
				continue
			}
			expiresAt := session.IdleSince.Add(info.SessionIdleTimeout)
			if expiresAt.After(now.Add(sessionSafetyMargin)) {
				err = m.persist(ctx, host, row.SessionCookie, expiresAt)
				if err != nil {
					return "", err
				}
				return row.SessionCookie, nil
			}
		}
	}

	cookie, err := m.login(ctx, client, row)
	if err != nil {
		return "", err
	}
	err = m.persist(ctx, host, cookie, now.Add(info.SessionIdleTimeout))
	if err != nil {
		return "", err
	}
	return cookie, nil
}

// login creates a fresh panel session and initializes it in the
// browser. The session id doubles as the cookie value, but the remote
// host only honors it after the initialization url has been visited
// from the address the session was bound to.
func (m *SessionManager) login(ctx context.Context, client *plesk.Client, row db.Connection) (string, error) {
	ip, err := sourceIPFor(row.Host, plesk.HTTPSPort)
	if err != nil {
		return "", err
	}
	id, err := client.Server().CreateSession(ctx, row.Login, plesk.CreateSessionOptions{
		SourceIP: ip,
	})
	if err != nil {
		return "", err
	}

	initURL := scrapeBaseURL(row.Host, row.UseHttps) +
		sessionInitPath + "?PLESKSESSID=" + url.QueryEscape(id)
	_, err = m.renderer.Render(ctx, initURL, nil)
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "logged into remote panel", "host", row.Host)
	return id, nil
}

func (m *SessionManager) persist(ctx context.Context, host, cookie string, expiresAt time.Time) error {
	err := m.qry.UpdateSessionState(ctx, db.UpdateSessionStateParams{
		Host:             host,
		SessionCookie:    cookie,
		SessionExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return err
	}
	m.cache.Add(host, sessionState{cookie: cookie, expiresAt: expiresAt})
	return nil
}

// Invalidate forgets the session for host, both in memory and in the
// connection record. The next Cookie call performs a full refresh.
func (m *SessionManager) Invalidate(ctx context.Context, host string) error {
	lock := m.hostLock(host)
	lock.Lock()
	defer lock.Unlock()

	m.cache.Remove(host)
	return m.qry.UpdateSessionState(ctx, db.UpdateSessionStateParams{Host: host})
}
