package quotemedia

import (
	"context"
	"fmt"
	"sync"
	"time"

	"VolSpike/internal/domain/repository"
	xhttp "VolSpike/pkg/http"
	xlogger "VolSpike/pkg/logger"
)

const authPath = "/auth/p/authenticate/v0/"

// DefaultSessionTTL is how long an upstream sid stays fresh before the
// session manager re-authenticates.
const DefaultSessionTTL = 25 * time.Minute

// Credentials identify one QuoteMedia webmaster account.
type Credentials struct {
	WmID     string
	Username string
	Password string
}

type authResponse struct {
	Code struct {
		Value int    `json:"value"`
		Name  string `json:"name"`
	} `json:"code"`
	SID string `json:"sid"`
}

// Session owns the upstream authentication state: the sid token and its
// freshness. All mutation goes through re-authentication; the upstream
// rejecting a sid is handled by Invalidate plus the fetchers' single retry.
type Session struct {
	client  *xhttp.Client
	baseURL string
	ttl     time.Duration
	metrics repository.Metrics
	logger  *xlogger.Logger

	mu       sync.Mutex
	creds    Credentials
	sid      string
	issuedAt time.Time
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionTTL overrides the token freshness threshold.
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(s *Session) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSessionMetrics attaches a metrics recorder.
func WithSessionMetrics(m repository.Metrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// WithSessionLogger attaches a logger.
func WithSessionLogger(l *xlogger.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a session manager. No network call happens until the
// first EnsureValid.
func NewSession(client *xhttp.Client, baseURL string, creds Credentials, opts ...SessionOption) *Session {
	s := &Session{
		client:  client,
		baseURL: baseURL,
		ttl:     DefaultSessionTTL,
		creds:   creds,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UseCredentials swaps the account the session authenticates as. A changed
// credential set discards the cached token so stale state scoped to another
// account is never reused.
func (s *Session) UseCredentials(c Credentials) {
	if c.WmID == "" && c.Username == "" && c.Password == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c != s.creds {
		s.creds = c
		s.sid = ""
		s.issuedAt = time.Time{}
	}
}

// EnsureValid returns a fresh sid, re-authenticating when the stored token is
// absent or older than the freshness threshold. A still-fresh token is
// returned unchanged, which bounds traffic to the auth endpoint.
func (s *Session) EnsureValid(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sid != "" && time.Since(s.issuedAt) < s.ttl {
		return s.sid, nil
	}
	if err := s.authenticateLocked(ctx); err != nil {
		return "", err
	}
	return s.sid, nil
}

// WmID reports the webmaster id of the active credentials; data endpoints
// send it alongside the sid.
func (s *Session) WmID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.WmID
}

// Invalidate drops the cached token so the next EnsureValid re-authenticates.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.sid = ""
	s.issuedAt = time.Time{}
	s.mu.Unlock()
}

func (s *Session) authenticateLocked(ctx context.Context) error {
	const op = "quotemedia.authenticate"

	var resp authResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     s.baseURL + authPath,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body: map[string]string{
			"wmId":     s.creds.WmID,
			"username": s.creds.Username,
			"password": s.creds.Password,
		},
	}, &resp)
	if err != nil {
		s.recordAuth("transport_error")
		return newError(KindTransport, op, err)
	}

	if resp.Code.Value != 0 {
		s.recordAuth("rejected")
		return newError(KindAuthentication, op, fmt.Errorf("auth failed: %s", resp.Code.Name))
	}
	if resp.SID == "" {
		s.recordAuth("rejected")
		return newError(KindUnavailable, op, fmt.Errorf("auth response missing sid"))
	}

	s.sid = resp.SID
	s.issuedAt = time.Now()
	s.recordAuth("ok")
	if s.logger != nil {
		s.logger.Info("quotemedia session authenticated", xlogger.String("wm_id", s.creds.WmID))
	}
	return nil
}

func (s *Session) recordAuth(result string) {
	if s.metrics != nil {
		s.metrics.RecordAuthRefresh(result)
	}
}
