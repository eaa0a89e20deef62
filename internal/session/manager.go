package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"member-ledger/internal/auth"
	"member-ledger/internal/models"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "membros.sid"
	// DefaultTTL is the fixed session lifetime, counted from login.
	DefaultTTL = 2 * time.Hour

	tokenKey = "sid"
)

// Options configures a Manager.
type Options struct {
	// Secret signs the session cookie.
	Secret []byte
	// Secure marks the cookie as HTTPS-only.
	Secure bool
	// TTL overrides DefaultTTL.
	TTL time.Duration
}

// Manager issues, resolves and destroys sessions. The cookie only carries a
// signed opaque token; the payload lives in the Store.
type Manager struct {
	store   Store
	cookies *sessions.CookieStore
	ttl     time.Duration
	now     func() time.Time
}

// NewManager creates a Manager backed by store.
func NewManager(store Store, opts Options) *Manager {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	cookies := sessions.NewCookieStore(opts.Secret)
	cookies.MaxAge(int(ttl.Seconds()))
	cookies.Options.Path = "/"
	cookies.Options.HttpOnly = true
	cookies.Options.Secure = opts.Secure
	cookies.Options.SameSite = http.SameSiteLaxMode

	return &Manager{store: store, cookies: cookies, ttl: ttl, now: time.Now}
}

// SetClock replaces the manager's time source.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Store returns the underlying session store.
func (m *Manager) Store() Store {
	return m.store
}

// Start creates a new session for user and writes its cookie, replacing any
// session the request already carried. The expiry is fixed at creation and
// never extended.
func (m *Manager) Start(w http.ResponseWriter, r *http.Request, user models.SessionUser) error {
	if old := m.token(r); old != "" {
		if err := m.store.Delete(r.Context(), old); err != nil {
			return err
		}
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		return err
	}
	if err := m.store.Save(r.Context(), token, user, m.now().Add(m.ttl)); err != nil {
		return err
	}

	sess, _ := m.cookies.New(r, CookieName)
	sess.Values[tokenKey] = token
	return sess.Save(r, w)
}

// Current returns the user bound to the request's session.
// It returns ErrNotFound when the request carries no live session.
func (m *Manager) Current(r *http.Request) (*models.SessionUser, error) {
	token := m.token(r)
	if token == "" {
		return nil, ErrNotFound
	}
	return m.store.Load(r.Context(), token)
}

// Destroy removes the request's session, if any, and expires its cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	var storeErr error
	if token := m.token(r); token != "" {
		storeErr = m.store.Delete(r.Context(), token)
	}

	sess, _ := m.cookies.New(r, CookieName)
	delete(sess.Values, tokenKey)
	sess.Options.MaxAge = -1
	return errors.Join(storeErr, sess.Save(r, w))
}

func (m *Manager) token(r *http.Request) string {
	if _, err := r.Cookie(CookieName); err != nil {
		return ""
	}
	sess, err := m.cookies.Get(r, CookieName)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[tokenKey].(string)
	return token
}
