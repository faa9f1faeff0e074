package moderation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/pkg/logger"
)

// Submitter accepts events, typically an *Engine
type Submitter interface {
	Submit(ctx context.Context, ev Event) error
}

// Scheduler fires a Tick at a fixed interval
type Scheduler struct {
	interval time.Duration
	target   Submitter
	stopChan chan struct{}
	running  bool
	mu       sync.Mutex
}

// NewScheduler creates a scheduler; call Start to begin ticking
func NewScheduler(interval time.Duration, target Submitter) *Scheduler {
	return &Scheduler{
		interval: interval,
		target:   target,
		stopChan: make(chan struct{}),
	}
}

// Start begins ticking. If already running, the current ticker is replaced.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		close(s.stopChan)
	}
	s.running = true
	s.stopChan = make(chan struct{})
	stopChan := s.stopChan
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		logger.Info("Scheduler: revisiones periódicas activadas (intervalo: "+s.interval.String()+")", "Scheduler")

		for {
			select {
			case <-ticker.C:
				if err := s.target.Submit(ctx, Tick{}); err != nil {
					logger.Error(fmt.Sprintf("Scheduler: no se pudo encolar el tick: %v", err), "Scheduler")
				}
			case <-stopChan:
				logger.Info("Scheduler: detenido", "Scheduler")
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops ticking
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		close(s.stopChan)
		s.running = false
	}
}

// TriggerNow queues an immediate tick without touching the regular cadence
func (s *Scheduler) TriggerNow(ctx context.Context) error {
	return s.target.Submit(ctx, Tick{})
}

// Interval returns the tick interval
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}
