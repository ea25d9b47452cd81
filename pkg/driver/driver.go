// Package driver runs reconcile passes on an interval.
package driver

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/sidkik/dirmirror/pkg/mirror"
)

// Driver repeatedly mirrors a source tree into a replica tree. Passes never
// overlap: the wait for the next pass only starts once the previous one has
// finished.
type Driver struct {
	source, replica string
	interval        time.Duration

	reconciler *mirror.Reconciler
	log        logrus.FieldLogger
	clock      clockwork.Clock

	// trigger starts the next pass early when it receives. It may be nil.
	trigger <-chan struct{}
}

// New creates a Driver that runs `reconciler` over the given roots every
// `interval`, logging a summary of each pass to `log`.
func New(source, replica string, interval time.Duration,
	reconciler *mirror.Reconciler, log logrus.FieldLogger) *Driver {
	return &Driver{
		source:     source,
		replica:    replica,
		interval:   interval,
		reconciler: reconciler,
		log:        log,
		clock:      clockwork.NewRealClock(),
	}
}

// WithClock sets the clock used to wait between passes.
func (d *Driver) WithClock(clock clockwork.Clock) *Driver {
	d.clock = clock
	return d
}

// WithTrigger sets a channel that starts the next pass without waiting for
// the rest of the interval.
func (d *Driver) WithTrigger(trigger <-chan struct{}) *Driver {
	d.trigger = trigger
	return d
}

// Run runs passes until `ctx` is cancelled. A pass that has already started
// when `ctx` is cancelled runs to completion.
func (d *Driver) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		summary := d.RunOnce()
		d.logSummary(summary)

		if !d.wait(ctx) {
			return nil
		}
	}
}

// wait blocks until the next pass is due. It returns false if `ctx` is
// cancelled first.
func (d *Driver) wait(ctx context.Context) bool {
	next := d.clock.After(d.interval)
	for {
		select {
		case <-ctx.Done():
			return false
		case <-next:
			return true
		case _, ok := <-d.trigger:
			if !ok {
				// The watcher stopped, so fall back to polling.
				d.trigger = nil
				continue
			}
			// Process diagnostics go to the standard logger, which honors
			// the verbose setting. d.log is the sync log.
			logrus.Debug("Source changed. Starting the next sync early.")
			return true
		}
	}
}

// RunOnce runs a single pass and summarizes the events it produced.
func (d *Driver) RunOnce() Summary {
	start := d.clock.Now()
	events := d.reconciler.Reconcile(d.source, d.replica)
	summary := Summarize(events)
	summary.Duration = d.clock.Since(start)
	return summary
}

func (d *Driver) logSummary(summary Summary) {
	if failed := summary.Counts[mirror.OperationFailed]; failed > 0 {
		d.log.WithField("failed", failed).Warn(
			"Some files couldn't be synced. They will be retried in the next sync.")
	}

	d.log.WithFields(summary.Fields()).Infof(
		"Sync completed! Next sync in %d seconds...", int(d.interval/time.Second))
}
