package moderation

import (
	"context"
	"sync"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/pkg/models"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// staticChecker answers from a fixed table and counts calls per URL
type staticChecker struct {
	mu       sync.Mutex
	statuses map[string]models.LinkStatus
	calls    map[string]int
}

func newStaticChecker(statuses map[string]models.LinkStatus) *staticChecker {
	if statuses == nil {
		statuses = make(map[string]models.LinkStatus)
	}
	return &staticChecker{statuses: statuses, calls: make(map[string]int)}
}

func (c *staticChecker) Check(_ context.Context, rawURL string, _ time.Duration) models.LinkStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[rawURL]++
	return c.statuses[rawURL]
}

func (c *staticChecker) Set(rawURL string, status models.LinkStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[rawURL] = status
}

func (c *staticChecker) Calls(rawURL string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[rawURL]
}

type recordingSink struct {
	mu      sync.Mutex
	actions []Action
}

func (s *recordingSink) Apply(_ context.Context, a Action) error {
	s.mu.Lock()
	s.actions = append(s.actions, a)
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) Actions() []Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Action, len(s.actions))
	copy(out, s.actions)
	return out
}

func newTestEngine(clock *fakeClock, checker Checker, opts Options) *Engine {
	return NewEngine(opts, NewDomainPolicy([]string{"blndev.com"}), checker, nil, clock.Now)
}

func reportsOf(actions []Action) []PostReport {
	var out []PostReport
	for _, a := range actions {
		if r, ok := a.(PostReport); ok {
			out = append(out, r)
		}
	}
	return out
}
