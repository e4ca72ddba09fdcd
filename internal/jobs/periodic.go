package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// periodic runs tick on a fixed interval until stopped. Each tick gets its
// own timeout so a wedged database call cannot stall the loop.
type periodic struct {
	name         string
	interval     time.Duration
	initialDelay time.Duration
	timeout      time.Duration
	tick         func(ctx context.Context)

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func newPeriodic(name string, interval time.Duration, tick func(ctx context.Context)) *periodic {
	return &periodic{
		name:         name,
		interval:     interval,
		initialDelay: 5 * time.Second,
		timeout:      2 * time.Minute,
		tick:         tick,
	}
}

// Start launches the loop. Calling it on a running job is a no-op.
func (p *periodic) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run()
	slog.Info("job started", slog.String("job", p.name), slog.Duration("interval", p.interval))
}

// Stop signals the loop and waits for an in-progress tick to finish.
func (p *periodic) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopCh)
	p.wg.Wait()
	slog.Info("job stopped", slog.String("job", p.name))
}

// IsRunning reports whether the loop is active
func (p *periodic) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *periodic) run() {
	defer p.wg.Done()

	select {
	case <-time.After(p.initialDelay):
		p.once()
	case <-p.stopCh:
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.once()
		case <-p.stopCh:
			return
		}
	}
}

func (p *periodic) once() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	p.tick(ctx)
}
