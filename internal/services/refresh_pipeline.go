package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/dealflow-hq/dealflow-api/internal/logger"
)

// RefreshPipeline periodically rebuilds every materialized discovery queue
// so profile edits propagate into scores without user action.
type RefreshPipeline struct {
	match     MatchService
	log       logger.Logger
	interval  time.Duration
	isRunning bool
	stopChan  chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
}

// NewRefreshPipeline creates a new background queue refresh pipeline
func NewRefreshPipeline(match MatchService, log logger.Logger, interval time.Duration) *RefreshPipeline {
	return &RefreshPipeline{
		match:    match,
		log:      log,
		interval: interval,
	}
}

// Start begins the background refresh loop
func (p *RefreshPipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return fmt.Errorf("refresh pipeline is already running")
	}
	p.isRunning = true

	// A fresh channel per launch; the previous one is closed and would make
	// a relaunched loop exit immediately.
	p.stopChan = make(chan struct{})

	p.wg.Add(1)
	go p.run(p.stopChan)

	p.log.Info("queue refresh pipeline started", "interval", p.interval.String())
	return nil
}

// Stop gracefully stops the refresh loop
func (p *RefreshPipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return fmt.Errorf("refresh pipeline is not running")
	}

	close(p.stopChan)
	p.wg.Wait()
	p.isRunning = false

	p.log.Info("queue refresh pipeline stopped")
	return nil
}

// IsRunning returns whether the pipeline loop is active
func (p *RefreshPipeline) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isRunning
}

// RunOnce executes a single refresh cycle manually
func (p *RefreshPipeline) RunOnce() (*RefreshStats, error) {
	return p.match.RefreshAll()
}

func (p *RefreshPipeline) run(stop <-chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.cycle()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.cycle()
		}
	}
}

func (p *RefreshPipeline) cycle() {
	stats, err := p.match.RefreshAll()
	if err != nil {
		p.log.Error("refresh cycle failed", err)
		return
	}
	p.log.Info("refresh cycle completed",
		"viewers", stats.Viewers, "entries", stats.Entries,
		"failed", stats.Failed, "duration", stats.Duration.Round(time.Millisecond).String())
}
