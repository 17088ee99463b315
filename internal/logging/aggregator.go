package logging

import (
	"log/slog"
	"sync"
	"time"
)

type eventKey struct {
	component string
	event     string
}

type eventTotals struct {
	count  int64
	amount int64
	last   []slog.Attr
}

// Aggregator batches high-frequency events (one per PTY read, for example)
// and logs a single "event_summary" record per event per interval.
type Aggregator struct {
	logger   *slog.Logger
	interval time.Duration

	mu     sync.Mutex
	totals map[eventKey]*eventTotals

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAggregator creates an aggregator flushing every intervalSecs seconds
// (30 when unset). A nil logger drops everything.
func NewAggregator(logger *slog.Logger, intervalSecs int) *Aggregator {
	if intervalSecs <= 0 {
		intervalSecs = 30
	}
	return &Aggregator{
		logger:   logger,
		interval: time.Duration(intervalSecs) * time.Second,
		totals:   make(map[eventKey]*eventTotals),
		stop:     make(chan struct{}),
	}
}

// Start launches the flush goroutine.
func (a *Aggregator) Start() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				a.Flush()
			case <-a.stop:
				return
			}
		}
	}()
}

// Stop ends the flush goroutine and flushes what is left. Safe to call
// more than once.
func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
	a.wg.Wait()
	a.Flush()
}

// Add records one occurrence of event and adds amount to its running total.
// The most recent non-empty fields are reported with the summary.
func (a *Aggregator) Add(component, event string, amount int64, fields ...slog.Attr) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := eventKey{component: component, event: event}
	t := a.totals[key]
	if t == nil {
		t = &eventTotals{}
		a.totals[key] = t
	}
	t.count++
	t.amount += amount
	if len(fields) > 0 {
		t.last = fields
	}
}

// Flush logs and resets the current totals.
func (a *Aggregator) Flush() {
	a.mu.Lock()
	if len(a.totals) == 0 {
		a.mu.Unlock()
		return
	}
	totals := a.totals
	a.totals = make(map[eventKey]*eventTotals)
	a.mu.Unlock()

	if a.logger == nil {
		return
	}
	for key, t := range totals {
		args := []any{
			slog.String("component", key.component),
			slog.String("event", key.event),
			slog.Int64("count", t.count),
			slog.Int64("total", t.amount),
			slog.Duration("window", a.interval),
		}
		for _, f := range t.last {
			args = append(args, f)
		}
		a.logger.Info("event_summary", args...)
	}
}
