package moderation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/pkg/errors"
	"github.com/PancyStudios/ChannelGuardGo/pkg/logger"
	"github.com/PancyStudios/ChannelGuardGo/pkg/models"
)

// Options tunes the engine. Zero fields take the values of DefaultOptions.
type Options struct {
	LinkTTL              time.Duration
	WarningThreshold     int
	ValidatorTimeout     time.Duration
	ValidatorConcurrency int
	// ReportChannelID, when set, receives every report instead of the
	// channel the links were posted in.
	ReportChannelID string
	QueueSize       int
}

// DefaultOptions returns the stock policy: links live three days and five
// warnings get a member kicked
func DefaultOptions() Options {
	return Options{
		LinkTTL:              72 * time.Hour,
		WarningThreshold:     5,
		ValidatorTimeout:     DefaultCheckTimeout,
		ValidatorConcurrency: 8,
		QueueSize:            256,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.LinkTTL <= 0 {
		o.LinkTTL = d.LinkTTL
	}
	if o.WarningThreshold <= 0 {
		o.WarningThreshold = d.WarningThreshold
	}
	if o.ValidatorTimeout <= 0 {
		o.ValidatorTimeout = d.ValidatorTimeout
	}
	if o.ValidatorConcurrency <= 0 {
		o.ValidatorConcurrency = d.ValidatorConcurrency
	}
	if o.QueueSize <= 0 {
		o.QueueSize = d.QueueSize
	}
	return o
}

// Stats is a point-in-time view of the engine state
type Stats struct {
	TrackedLinks  int       `json:"trackedLinks"`
	Reachable     int       `json:"reachable"`
	Unreachable   int       `json:"unreachable"`
	Unknown       int       `json:"unknown"`
	WarnedMembers int       `json:"warnedMembers"`
	LastTick      time.Time `json:"lastTick"`
	LastReports   int       `json:"lastReports"`
}

// Engine owns the link registry and the warning ledger. All mutation happens
// on the goroutine running Run, or on the caller of Handle when the engine is
// driven synchronously; the two modes must not be mixed.
type Engine struct {
	opts     Options
	policy   *DomainPolicy
	ledger   *WarningLedger
	registry *LinkRegistry
	checker  Checker
	sink     ActionSink
	now      func() time.Time

	// loop-owned; handled maps message ids to when they were first seen
	handled      map[string]time.Time
	tickInFlight bool

	events chan Event
	done   chan struct{}

	mu          sync.RWMutex
	running     bool
	lastTick    time.Time
	lastReports int
}

// NewEngine wires an engine. A nil clock means time.Now; a nil sink drops
// actions, which is only useful when driving Handle directly.
func NewEngine(opts Options, policy *DomainPolicy, checker Checker, sink ActionSink, clock func() time.Time) *Engine {
	if clock == nil {
		clock = time.Now
	}
	opts = opts.withDefaults()

	return &Engine{
		opts:     opts,
		policy:   policy,
		ledger:   NewWarningLedger(),
		registry: NewLinkRegistry(clock, opts.LinkTTL),
		checker:  checker,
		sink:     sink,
		now:      clock,
		handled:  make(map[string]time.Time),
		events:   make(chan Event, opts.QueueSize),
		done:     make(chan struct{}),
	}
}

// Options returns the effective options
func (e *Engine) Options() Options {
	return e.opts
}

// Submit queues an event for the loop started by Run. Events are processed
// in submission order.
func (e *Engine) Submit(ctx context.Context, ev Event) error {
	select {
	case <-e.done:
		return ErrStopped
	default:
	}

	select {
	case e.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}
}

// Run processes submitted events until ctx is cancelled. Actions are handed
// to the sink from a separate goroutine, in the order they were decided.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.running = true
	e.mu.Unlock()
	defer close(e.done)

	logger.System(fmt.Sprintf("Motor de moderación iniciado (TTL: %s, umbral: %d avisos)", e.opts.LinkTTL, e.opts.WarningThreshold), "Moderation")

	actions := make(chan Action, e.opts.QueueSize)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.dispatch(ctx, actions)
	}()

	defer func() {
		close(actions)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			logger.System("Motor de moderación detenido", "Moderation")
			return nil
		case ev := <-e.events:
			for _, a := range e.step(ctx, ev) {
				actions <- a
			}
		}
	}
}

// step is one loop iteration. Ticks are split so probes never hold the loop.
func (e *Engine) step(ctx context.Context, ev Event) (out []Action) {
	defer errors.RecoverMiddleware()()

	if _, ok := ev.(Tick); ok {
		e.startTick(ctx)
		return nil
	}
	return e.Handle(ctx, ev)
}

func (e *Engine) dispatch(ctx context.Context, actions <-chan Action) {
	for a := range actions {
		if e.sink == nil {
			continue
		}
		e.apply(ctx, a)
	}
}

func (e *Engine) apply(ctx context.Context, a Action) {
	defer errors.RecoverMiddleware()()

	if err := e.sink.Apply(ctx, a); err != nil {
		logger.Error(fmt.Sprintf("Error aplicando %s: %v", a.Kind(), err), "Moderation")
	}
}

// Handle processes one event synchronously and returns the resulting
// actions. A Tick handled here blocks until every probe has finished.
func (e *Engine) Handle(ctx context.Context, ev Event) []Action {
	switch ev := ev.(type) {
	case NewMessage:
		return e.handleNewMessage(ev)
	case ServiceMessage:
		return e.handleServiceMessage(ev)
	case MessageDeleted:
		e.handleMessageDeleted(ev)
		return nil
	case Tick:
		batch := e.beginTick()
		return e.finishTick(batch, e.probe(ctx, batch))
	case tickResult:
		e.tickInFlight = false
		return e.finishTick(ev.batch, ev.results)
	default:
		logger.Warn(fmt.Sprintf("Evento desconocido: %T", ev), "Moderation")
		return nil
	}
}

func (e *Engine) handleNewMessage(m NewMessage) []Action {
	if len(m.Links) == 0 {
		return nil
	}

	if _, dup := e.handled[m.MessageID]; dup {
		logger.Debug(fmt.Sprintf("Mensaje %s ya procesado, se ignora", m.MessageID), "Moderation")
		return nil
	}
	e.handled[m.MessageID] = e.now()

	var unauthorized []string
	for _, raw := range m.Links {
		if !e.policy.IsAuthorized(raw) {
			unauthorized = append(unauthorized, raw)
		}
	}

	if len(unauthorized) == 0 {
		e.registerLinks(m)
		return nil
	}

	count := e.ledger.RecordViolation(m.ChatID, m.UserID)
	remaining := e.opts.WarningThreshold - count
	if remaining < 0 {
		remaining = 0
	}

	logger.Warn(fmt.Sprintf("Enlace no permitido de %s en %s (%s). Avisos: %d/%d",
		m.UserID, m.ChatID, unauthorized[0], count, e.opts.WarningThreshold), "Moderation")

	actions := []Action{
		DeleteMessage{ChatID: m.ChatID, MessageID: m.MessageID},
		WarnUser{ChatID: m.ChatID, UserID: m.UserID, Remaining: remaining},
	}

	if count >= e.opts.WarningThreshold {
		e.ledger.Clear(m.ChatID, m.UserID)
		actions = append(actions, KickUser{ChatID: m.ChatID, UserID: m.UserID})
		logger.Warn(fmt.Sprintf("%s alcanzó el límite de avisos en %s, expulsando", m.UserID, m.ChatID), "Moderation")
	}

	return actions
}

func (e *Engine) registerLinks(m NewMessage) {
	postedAt := m.SentAt
	if postedAt.IsZero() {
		postedAt = e.now()
	}

	for _, raw := range m.Links {
		link := models.TrackedLink{
			URL:        Canonicalize(raw),
			ChatID:     m.ChatID,
			PosterID:   m.UserID,
			MessageID:  m.MessageID,
			PostedAt:   postedAt,
			LastStatus: models.StatusUnknown,
		}
		if e.registry.Add(link) {
			logger.Debug(fmt.Sprintf("Enlace %s del mensaje %s reemplazado", link.URL, m.MessageID), "Moderation")
			continue
		}
		logger.Debug(fmt.Sprintf("Enlace registrado: %s (mensaje %s)", link.URL, m.MessageID), "Moderation")
	}
}

func (e *Engine) handleServiceMessage(m ServiceMessage) []Action {
	logger.Debug(fmt.Sprintf("Eliminando aviso de %s en %s", m.Kind, m.ChatID), "Moderation")
	return []Action{DeleteMessage{ChatID: m.ChatID, MessageID: m.MessageID}}
}

func (e *Engine) handleMessageDeleted(m MessageDeleted) {
	if n := e.registry.RemoveMessage(m.MessageID); n > 0 {
		logger.Debug(fmt.Sprintf("%d enlace(s) dejan de seguirse: mensaje %s eliminado", n, m.MessageID), "Moderation")
	}
}

// Links returns the tracked links of a chat; an empty chatID returns all
func (e *Engine) Links(chatID string) []models.TrackedLink {
	return e.registry.ByChat(chatID)
}

// WarningCount returns the member's current number of warnings in a chat
func (e *Engine) WarningCount(chatID, userID string) int {
	return e.ledger.Count(chatID, userID)
}

// Warnings returns the warning records of a chat; an empty chatID returns all
func (e *Engine) Warnings(chatID string) []models.WarningRecord {
	return e.ledger.Records(chatID)
}

// Stats returns counters for status endpoints
func (e *Engine) Stats() Stats {
	s := Stats{WarnedMembers: e.ledger.Len()}
	for _, link := range e.registry.All() {
		s.TrackedLinks++
		switch link.LastStatus {
		case models.StatusReachable:
			s.Reachable++
		case models.StatusUnreachable:
			s.Unreachable++
		default:
			s.Unknown++
		}
	}

	e.mu.RLock()
	s.LastTick = e.lastTick
	s.LastReports = e.lastReports
	e.mu.RUnlock()
	return s
}
