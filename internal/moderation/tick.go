package moderation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/pkg/errors"
	"github.com/PancyStudios/ChannelGuardGo/pkg/logger"
	"github.com/PancyStudios/ChannelGuardGo/pkg/models"
	"golang.org/x/sync/errgroup"
)

// tickBatch is the set of links a tick checks, captured after expiry
type tickBatch struct {
	startedAt time.Time
	links     []models.TrackedLink
	expired   int
}

type probeResult struct {
	url       string
	status    models.LinkStatus
	checkedAt time.Time
}

// startTick expires old links on the loop and probes the rest in the
// background; the results come back as a tickResult event.
func (e *Engine) startTick(ctx context.Context) {
	if e.tickInFlight {
		logger.Warn("Revisión de enlaces en curso, se omite el tick", "Moderation")
		return
	}

	batch := e.beginTick()
	e.tickInFlight = true

	go func() {
		var results []probeResult
		defer func() {
			select {
			case e.events <- tickResult{batch: batch, results: results}:
			case <-ctx.Done():
			}
		}()
		defer errors.RecoverMiddleware()()

		results = e.probe(ctx, batch)
	}()
}

func (e *Engine) beginTick() tickBatch {
	now := e.now()

	expired := 0
	for link := range e.registry.OlderThan(e.opts.LinkTTL) {
		e.registry.Remove(link)
		expired++
	}

	for id, at := range e.handled {
		if now.Sub(at) > e.opts.LinkTTL {
			delete(e.handled, id)
		}
	}

	links := e.registry.All()
	logger.Info(fmt.Sprintf("Revisión de enlaces: %d caducados, %d por comprobar", expired, len(links)), "Moderation")

	return tickBatch{startedAt: now, links: links, expired: expired}
}

// probe checks every distinct URL of the batch concurrently
func (e *Engine) probe(ctx context.Context, batch tickBatch) []probeResult {
	urls := make([]string, 0, len(batch.links))
	seen := make(map[string]struct{}, len(batch.links))
	for _, link := range batch.links {
		if _, dup := seen[link.URL]; dup {
			continue
		}
		seen[link.URL] = struct{}{}
		urls = append(urls, link.URL)
	}

	results := make([]probeResult, len(urls))
	var g errgroup.Group
	g.SetLimit(e.opts.ValidatorConcurrency)

	for i, u := range urls {
		g.Go(func() error {
			results[i] = probeResult{
				url:       u,
				status:    e.checkWithDeadline(ctx, u),
				checkedAt: e.now(),
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// checkWithDeadline abandons a check that outlives the validator timeout.
// The underlying call is left to finish on its own.
func (e *Engine) checkWithDeadline(ctx context.Context, url string) models.LinkStatus {
	ch := make(chan models.LinkStatus, 1)
	go func() {
		defer errors.RecoverMiddleware()()
		ch <- e.checker.Check(ctx, url, e.opts.ValidatorTimeout)
	}()

	timer := time.NewTimer(e.opts.ValidatorTimeout)
	defer timer.Stop()

	select {
	case status := <-ch:
		return status
	case <-timer.C:
		logger.Debug(fmt.Sprintf("Tiempo agotado comprobando %s", url), "Moderation")
		return models.StatusUnknown
	case <-ctx.Done():
		return models.StatusUnknown
	}
}

// finishTick folds probe results into the registry and builds one report
// per chat that still has tracked links from the batch
func (e *Engine) finishTick(batch tickBatch, results []probeResult) []Action {
	statusByURL := make(map[string]models.LinkStatus, len(results))
	for _, r := range results {
		if r.url == "" {
			continue
		}
		statusByURL[r.url] = r.status
		// an inconclusive check keeps the last known status
		if r.status != models.StatusUnknown {
			e.registry.UpdateStatus(r.url, r.status, r.checkedAt)
		}
	}

	reports := make(map[string]*chatReport)
	for _, link := range batch.links {
		if !e.registry.Contains(link) {
			continue
		}

		rep, ok := reports[link.ChatID]
		if !ok {
			rep = &chatReport{chatID: link.ChatID}
			reports[link.ChatID] = rep
		}

		switch statusByURL[link.URL] {
		case models.StatusUnreachable:
			link.LastStatus = models.StatusUnreachable
			rep.broken = append(rep.broken, link)
		case models.StatusReachable:
			rep.reachable++
		default:
			rep.pending++
		}
	}

	chats := make([]string, 0, len(reports))
	for chatID := range reports {
		chats = append(chats, chatID)
	}
	sort.Strings(chats)

	actions := make([]Action, 0, len(chats))
	broken := 0
	for _, chatID := range chats {
		rep := reports[chatID]
		broken += len(rep.broken)

		target := chatID
		if e.opts.ReportChannelID != "" {
			target = e.opts.ReportChannelID
		}
		actions = append(actions, PostReport{
			ChatID: target,
			Text:   rep.Text(target != chatID),
			Broken: rep.broken,
		})
	}

	e.mu.Lock()
	e.lastTick = batch.startedAt
	e.lastReports = len(actions)
	e.mu.Unlock()

	logger.Success(fmt.Sprintf("Revisión completada: %d enlaces rotos, %d informes", broken, len(actions)), "Moderation")
	return actions
}
