package gateway

import (
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/8r2y5/guilded/metric"
)

// LatencyUnmeasured is what Latency reads before any heartbeat round trip
// has completed. It is an explicit sentinel, never zero.
const LatencyUnmeasured = time.Duration(math.MaxInt64)

// Heartbeat keeps the connection alive on its own schedule, decoupled from
// the receive path: ReceiveOne blocks per message, so during quiet periods
// nothing else would generate traffic and the server would drop us.
//
// Each tick sends the heartbeat payload and waits for the send to complete
// against a bounded wait; if the wait is exceeded the supervisor logs an
// escalating warning with a goroutine stack snapshot and keeps waiting
// cumulatively. Only a send error stops the supervisor.
type Heartbeat struct {
	interval time.Duration
	sendWait time.Duration
	send     func(string) error
	logger   *slog.Logger
	metrics  *heartbeatMetrics

	// lastSentNanos is the wall clock of the most recent heartbeat still
	// awaiting its acknowledgement; zero when none is outstanding.
	lastSentNanos atomic.Int64

	// latencyNanos is the most recent completed round trip; zero means
	// unmeasured and reads as LatencyUnmeasured.
	latencyNanos atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// heartbeatMetrics holds Prometheus metrics for the heartbeat supervisor.
type heartbeatMetrics struct {
	latency prometheus.Histogram
	blocked prometheus.Counter
	ticks   prometheus.Counter
}

// newHeartbeatMetrics creates and registers heartbeat metrics.
func newHeartbeatMetrics(registry *metric.Registry) *heartbeatMetrics {
	if registry == nil {
		return nil
	}

	m := &heartbeatMetrics{
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "guilded",
			Subsystem: "gateway",
			Name:      "heartbeat_latency_seconds",
			Help:      "Heartbeat round-trip latency",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		blocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guilded",
			Subsystem: "gateway",
			Name:      "heartbeat_blocked_total",
			Help:      "Times a heartbeat send exceeded its bounded wait",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guilded",
			Subsystem: "gateway",
			Name:      "heartbeat_ticks_total",
			Help:      "Heartbeats sent",
		}),
	}

	// Registration failures are surfaced at registry level; the supervisor
	// keeps running without metrics rather than refusing to heartbeat.
	if err := registry.RegisterHistogram("gateway", "heartbeat_latency", m.latency); err != nil {
		return nil
	}
	if err := registry.RegisterCounter("gateway", "heartbeat_blocked", m.blocked); err != nil {
		return nil
	}
	if err := registry.RegisterCounter("gateway", "heartbeat_ticks", m.ticks); err != nil {
		return nil
	}

	return m
}

// NewHeartbeat creates a supervisor ticking every interval, sending through
// send. sendWait bounds how long one send may take before blocked warnings
// start; zero means the 10s default.
func NewHeartbeat(interval time.Duration, send func(string) error, sendWait time.Duration,
	logger *slog.Logger, registry *metric.Registry) *Heartbeat {
	if logger == nil {
		logger = slog.Default()
	}
	if sendWait <= 0 {
		sendWait = 10 * time.Second
	}
	if interval <= 0 {
		// A handshake without a usable ping interval; fall back to the
		// protocol's customary 25s rather than refusing to heartbeat.
		interval = 25 * time.Second
	}
	return &Heartbeat{
		interval: interval,
		sendWait: sendWait,
		send:     send,
		logger:   logger,
		metrics:  newHeartbeatMetrics(registry),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the supervisor goroutine.
func (h *Heartbeat) Start() {
	h.logger.Debug("starting heartbeat supervisor", "interval", h.interval)
	go h.run()
}

// Stop asks the supervisor to exit at its next scheduled wait. It does not
// interrupt a send already in flight.
func (h *Heartbeat) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}

// Done is closed once the supervisor goroutine has exited.
func (h *Heartbeat) Done() <-chan struct{} {
	return h.done
}

// Latency returns the wall-clock duration of the most recently completed
// heartbeat round trip, or LatencyUnmeasured before the first one.
func (h *Heartbeat) Latency() time.Duration {
	nanos := h.latencyNanos.Load()
	if nanos == 0 {
		return LatencyUnmeasured
	}
	return time.Duration(nanos)
}

// Ack records the arrival of a heartbeat acknowledgement frame, completing
// the round trip started by the most recent send.
func (h *Heartbeat) Ack() {
	sent := h.lastSentNanos.Swap(0)
	if sent == 0 {
		return
	}
	latency := time.Since(time.Unix(0, sent))
	h.latencyNanos.Store(int64(latency))
	if h.metrics != nil {
		h.metrics.latency.Observe(latency.Seconds())
	}
}

// run is the supervisor loop.
func (h *Heartbeat) run() {
	defer close(h.done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			h.logger.Debug("heartbeat supervisor stopped")
			return
		case <-ticker.C:
			// Stored before the send goes out: an acknowledgement can be
			// processed on the receive path before sendWithWait returns.
			h.lastSentNanos.Store(time.Now().UnixNano())
			if err := h.sendWithWait(); err != nil {
				h.logger.Error("heartbeat send failed, stopping supervisor", "error", err)
				return
			}
			if h.metrics != nil {
				h.metrics.ticks.Inc()
			}
		}
	}
}

// sendWithWait sends one heartbeat and waits for completion. Each time the
// bounded wait expires it logs a warning with a snapshot of all goroutine
// stacks (the receive path included) and keeps waiting cumulatively; the
// send is never abandoned.
func (h *Heartbeat) sendWithWait() error {
	result := make(chan error, 1)
	go func() {
		result <- h.send(HeartbeatPayload)
	}()

	var blocked time.Duration
	for {
		timer := time.NewTimer(h.sendWait)
		select {
		case err := <-result:
			timer.Stop()
			return err
		case <-timer.C:
			blocked += h.sendWait
			h.logger.Warn("heartbeat send blocked",
				"blocked_for", blocked,
				"stacks", goroutineStacks())
			if h.metrics != nil {
				h.metrics.blocked.Inc()
			}
		}
	}
}

// goroutineStacks snapshots every goroutine's stack for blocked-send
// diagnostics.
func goroutineStacks() string {
	buf := make([]byte, 64<<10)
	n := runtime.Stack(buf, true)
	return string(buf[:n])
}
