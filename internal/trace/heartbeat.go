package trace

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

// Heartbeat periodically emits liveness events carrying goroutine and heap
// figures. Heartbeats with no pass ending between them point at a pass that
// does not terminate.
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// StartHeartbeat starts emitting every interval. It returns nil when tracer
// is disabled or interval is not positive; Stop on nil is a no-op.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer:   tracer,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Heartbeat) run() {
	defer close(h.done)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var beat uint64
	var mem runtime.MemStats
	for {
		select {
		case <-ticker.C:
			beat++
			runtime.ReadMemStats(&mem)
			h.tracer.Emit(&Event{
				Time:   time.Now(),
				Seq:    NextSeq(),
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				GID:    getGoroutineID(),
				Name:   "heartbeat",
				Detail: fmt.Sprintf("#%d", beat),
				Extra: map[string]string{
					"goroutines": fmt.Sprint(runtime.NumGoroutine()),
					"heap_mb":    fmt.Sprintf("%.1f", float64(mem.HeapAlloc)/(1<<20)),
				},
			})
		case <-h.stop:
			return
		}
	}
}

// Stop ends the heartbeat and waits for its goroutine. Safe to call twice.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
