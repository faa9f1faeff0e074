package moderation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/pkg/logger"
	"github.com/PancyStudios/ChannelGuardGo/pkg/models"
)

// DefaultCheckTimeout bounds a probe when the caller passes no timeout
const DefaultCheckTimeout = 10 * time.Second

// Checker probes the reachability of a link
type Checker interface {
	Check(ctx context.Context, rawURL string, timeout time.Duration) models.LinkStatus
}

// CheckerFunc adapts a function to Checker
type CheckerFunc func(ctx context.Context, rawURL string, timeout time.Duration) models.LinkStatus

// Check calls f(ctx, rawURL, timeout)
func (f CheckerFunc) Check(ctx context.Context, rawURL string, timeout time.Duration) models.LinkStatus {
	return f(ctx, rawURL, timeout)
}

// HTTPDoer is the part of *http.Client the validator needs
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPValidator checks links with a HEAD request, falling back to GET when
// the server refuses HEAD. Only the configured status codes count as broken;
// any other failure is inconclusive and left for the next tick.
type HTTPValidator struct {
	client      HTTPDoer
	brokenCodes map[int]struct{}
	userAgent   string
}

// NewHTTPValidator creates a validator. With no codes, 403 is the only
// broken signal.
func NewHTTPValidator(client HTTPDoer, brokenCodes ...int) *HTTPValidator {
	if client == nil {
		client = &http.Client{}
	}
	if len(brokenCodes) == 0 {
		brokenCodes = []int{http.StatusForbidden}
	}

	v := &HTTPValidator{
		client:      client,
		brokenCodes: make(map[int]struct{}, len(brokenCodes)),
		userAgent:   "ChannelGuardGo/1.0 (+link check)",
	}
	for _, c := range brokenCodes {
		v.brokenCodes[c] = struct{}{}
	}
	return v
}

// Check implements Checker
func (v *HTTPValidator) Check(ctx context.Context, rawURL string, timeout time.Duration) models.LinkStatus {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	code, err := v.probe(ctx, http.MethodHead, rawURL)
	if err == nil && (code == http.StatusMethodNotAllowed || code == http.StatusNotImplemented) {
		code, err = v.probe(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		logger.Debug(fmt.Sprintf("Comprobación sin resultado para %s: %v", rawURL, err), "Validator")
		return models.StatusUnknown
	}

	return v.classify(code)
}

func (v *HTTPValidator) classify(code int) models.LinkStatus {
	if _, broken := v.brokenCodes[code]; broken {
		return models.StatusUnreachable
	}
	if code >= 200 && code < 400 {
		return models.StatusReachable
	}
	return models.StatusUnknown
}

func (v *HTTPValidator) probe(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// let the connection be reused without downloading whole pages
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, nil
}
