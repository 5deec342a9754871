package refresh

import (
	"log"
	gosync "sync"
	"time"
)

// DefaultInterval is the periodic refresh interval.
const DefaultInterval = 300 * time.Second

// Poller calls fn on a fixed interval while the data source is
// ready. It never runs fn on its own when ready flips on; callers
// trigger the initial refresh themselves.
type Poller struct {
	interval time.Duration
	fn       func()

	mu   gosync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewPoller creates a stopped poller. A non-positive interval
// means DefaultInterval.
func NewPoller(interval time.Duration, fn func()) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{interval: interval, fn: fn}
}

// SetReady starts the timer when ready and not already running,
// and stops it when not ready. At most one timer is active. A
// call to fn already in progress is not interrupted.
func (p *Poller) SetReady(ready bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case ready && p.stop == nil:
		p.stop = make(chan struct{})
		p.done = make(chan struct{})
		go p.loop(p.stop, p.done)
		log.Printf("refresh: polling every %s", p.interval)
	case !ready && p.stop != nil:
		close(p.stop)
		p.stop = nil
		log.Printf("refresh: polling stopped")
	}
}

// Running reports whether the timer is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}

// Stop cancels the timer and waits for the loop to exit,
// including any fn call in progress.
func (p *Poller) Stop() {
	p.mu.Lock()
	done := p.done
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (p *Poller) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			p.fn()
		}
	}
}
