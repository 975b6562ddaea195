package quotemedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"VolSpike/internal/domain/repository"
	"VolSpike/internal/service/ratelimit"
	xhttp "VolSpike/pkg/http"
	xlogger "VolSpike/pkg/logger"
	xutil "VolSpike/pkg/util"
)

// unknownIdentifier is the stable fallback for missing symbol/exchange/broker
// identifiers in upstream payloads.
const unknownIdentifier = "UNKNOWN"

const limiterKey = "quotemedia"

// flexFloat decodes a JSON number that may arrive as a number, a quoted
// string, or null. Anything non-numeric coerces to zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*f = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	*f = flexFloat(xutil.ParseFloatDefault(s, 0))
	return nil
}

// codeProbe reads just enough of any upstream payload to spot an
// authorization rejection.
type codeProbe struct {
	Code struct {
		Value int    `json:"value"`
		Name  string `json:"name"`
	} `json:"code"`
}

// apiClient is the shared fetch-with-retry plumbing for the data endpoints.
// Each call ensures a valid session first, then performs at most one
// re-authentication + retry cycle when the payload is unparseable or the
// upstream rejects the sid. Any other transport failure surfaces immediately.
type apiClient struct {
	http    *xhttp.Client
	baseURL string
	session *Session
	limiter *ratelimit.Limiter
	maxRPS  float64
	burst   float64
	metrics repository.Metrics
	logger  *xlogger.Logger
}

// getJSON fetches path with the given query params plus session identity and
// decodes the payload into out. The retry bound is structural: the loop body
// runs at most twice.
func (c *apiClient) getJSON(ctx context.Context, op, endpoint, path string, params map[string]string, out interface{}) error {
	var lastErr *Error

	for attempt := 0; attempt < 2; attempt++ {
		sid, err := c.session.EnsureValid(ctx)
		if err != nil {
			c.recordFetch(endpoint, "auth_error")
			return err
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, limiterKey, c.burst, c.maxRPS); err != nil {
				c.recordFetch(endpoint, "canceled")
				return newError(KindTransport, op, err)
			}
		}

		query := map[string][]string{
			"webmasterId": {c.session.WmID()},
			"sid":         {sid},
		}
		for k, v := range params {
			query[k] = []string{v}
		}

		resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         c.baseURL + path,
			QueryParams: query,
		})
		if err != nil {
			c.recordFetch(endpoint, "transport_error")
			return newError(KindTransport, op, err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			c.recordFetch(endpoint, "transport_error")
			return newError(KindTransport, op, readErr)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			lastErr = newError(KindNotAuthorized, op, fmt.Errorf("status %d", resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			c.recordFetch(endpoint, "transport_error")
			return newError(KindTransport, op, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200)))
		default:
			var probe codeProbe
			if err := json.Unmarshal(body, &probe); err != nil {
				lastErr = newError(KindUnavailable, op, fmt.Errorf("unparseable payload: %w", err))
			} else if probe.Code.Name == "NotAuthorized" {
				lastErr = newError(KindNotAuthorized, op, fmt.Errorf("session rejected"))
			} else if err := json.Unmarshal(body, out); err != nil {
				lastErr = newError(KindUnavailable, op, fmt.Errorf("decode payload: %w", err))
			} else {
				c.recordFetch(endpoint, "ok")
				return nil
			}
		}

		// One re-authentication + retry cycle, then terminal.
		if attempt == 0 {
			c.session.Invalidate()
			c.recordFetch(endpoint, "retry")
			if c.logger != nil {
				c.logger.Warn("upstream fetch retrying after re-authentication",
					xlogger.String("endpoint", endpoint),
					xlogger.Error(lastErr),
				)
			}
		}
	}

	c.recordFetch(endpoint, string(lastErr.Kind))
	return lastErr
}

func (c *apiClient) recordFetch(endpoint, outcome string) {
	if c.metrics != nil {
		c.metrics.RecordFetch(endpoint, outcome)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
