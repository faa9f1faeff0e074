package moderation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformedURL is returned when a link has no usable http(s) host
var ErrMalformedURL = errors.New("malformed url")

// DomainPolicy decides whether a link points at an allowed host.
// The allow list is fixed at construction.
type DomainPolicy struct {
	allowed map[string]struct{}
}

// NewDomainPolicy builds a policy from hostnames such as "blndev.com"
func NewDomainPolicy(domains []string) *DomainPolicy {
	p := &DomainPolicy{allowed: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		d = normalizeHost(d)
		if d == "" {
			continue
		}
		p.allowed[d] = struct{}{}
	}
	return p
}

// Domains returns the allow list
func (p *DomainPolicy) Domains() []string {
	out := make([]string, 0, len(p.allowed))
	for d := range p.allowed {
		out = append(out, d)
	}
	return out
}

// IsAuthorized reports whether the host of rawURL is an allowed domain or
// one of its subdomains. Anything that cannot be parsed is unauthorized.
func (p *DomainPolicy) IsAuthorized(rawURL string) bool {
	host, err := Hostname(rawURL)
	if err != nil {
		return false
	}

	for {
		if _, ok := p.allowed[host]; ok {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			return false
		}
		host = host[i+1:]
	}
}

// Hostname extracts the lower-cased host of an http(s) URL
func Hostname(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrMalformedURL, u.Scheme)
	}

	host := normalizeHost(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: missing host", ErrMalformedURL)
	}
	return host, nil
}

func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimPrefix(h, "*.")
	return strings.Trim(h, ".")
}

// ErrStopped is returned when submitting to an engine whose loop has exited
var ErrStopped = errors.New("moderation engine stopped")

// ErrAlreadyRunning is returned by a second call to Engine.Run
var ErrAlreadyRunning = errors.New("moderation engine already running")
