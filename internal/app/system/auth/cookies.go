package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// SessionName is the cookie holding the signed session token.
const SessionName = "mohallahub-session"

const tokenKey = "token"

// CookieTokens keeps the session token in a signed cookie for browser
// clients. API clients send the same token as a bearer header instead.
type CookieTokens struct {
	store *sessions.CookieStore
	name  string
}

// NewCookieTokens builds the cookie store. Cookies are always SameSite=Lax,
// so browsers never attach them to cross-site POST or PATCH requests.
// secure=true adds the Secure flag for production over https.
func NewCookieTokens(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*CookieTokens, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = SessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	store.Options = opts
	store.MaxAge(opts.MaxAge)

	logger.Info("session cookie store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &CookieTokens{store: store, name: name}, nil
}

// Save writes token into the session cookie.
func (c *CookieTokens) Save(w http.ResponseWriter, r *http.Request, token string) error {
	sess, _ := c.store.Get(r, c.name)
	sess.Values[tokenKey] = token
	return sess.Save(r, w)
}

// Load returns the token from the session cookie, or "" when there is none
// or the cookie fails verification.
func (c *CookieTokens) Load(r *http.Request) string {
	if c == nil {
		return ""
	}
	sess, err := c.store.Get(r, c.name)
	if err != nil {
		return ""
	}
	s, _ := sess.Values[tokenKey].(string)
	return s
}

// Clear expires the session cookie.
func (c *CookieTokens) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := c.store.Get(r, c.name)
	delete(sess.Values, tokenKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
