package usecases

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sophialabs/redirectlint/internal/domain/redirect"
	"github.com/sophialabs/redirectlint/internal/domain/report"
	"github.com/sophialabs/redirectlint/internal/infrastructure/outbound/clock"
	"github.com/sophialabs/redirectlint/internal/infrastructure/ports"
	"github.com/sophialabs/redirectlint/internal/infrastructure/services"
)

// BrokenLinkHeadline heads every record produced for a flagged destination.
const BrokenLinkHeadline = `"to" may be a broken link`

// CheckOptions tunes the link check.
type CheckOptions struct {
	// Concurrency caps in-flight probes. Zero launches every probe at once.
	Concurrency int
	// Timeout bounds each probe, including pacing. Zero means no bound.
	Timeout time.Duration
}

// CheckSummary describes a finished check.
type CheckSummary struct {
	Checked int
	Flagged int
	Elapsed time.Duration
}

// CheckLinksUseCase probes every entry's destination once and records the
// ones that look broken.
type CheckLinksUseCase struct {
	prober     ports.Prober
	pacer      ports.Pacer
	classifier *services.Classifier
	clock      ports.Clock
	logger     ports.Logger
	opts       CheckOptions
}

// NewCheckLinksUseCase creates a new use case.
func NewCheckLinksUseCase(prober ports.Prober, classifier *services.Classifier, clk ports.Clock, logger ports.Logger, opts CheckOptions) *CheckLinksUseCase {
	return &CheckLinksUseCase{
		prober:     prober,
		classifier: classifier,
		clock:      clk,
		logger:     logger,
		opts:       opts,
	}
}

// SetPacer enables per-host pacing of probes.
func (uc *CheckLinksUseCase) SetPacer(p ports.Pacer) {
	uc.pacer = p
}

// Execute probes all entries concurrently and returns once every probe has
// settled. A failing probe never cancels the others.
func (uc *CheckLinksUseCase) Execute(ctx context.Context, entries []redirect.Entry, sink *report.Collector) CheckSummary {
	start := uc.clock.Now()
	var flagged atomic.Int64

	var g errgroup.Group
	if uc.opts.Concurrency > 0 {
		g.SetLimit(uc.opts.Concurrency)
	}

	uc.logger.Info("checking links", "entries", len(entries), "concurrency", uc.opts.Concurrency)

	for _, entry := range entries {
		g.Go(func() error {
			if rec, bad := uc.probe(ctx, entry); bad {
				sink.Add(rec)
				flagged.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := CheckSummary{
		Checked: len(entries),
		Flagged: int(flagged.Load()),
		Elapsed: clock.Elapsed(uc.clock, start),
	}
	uc.logger.Info("link check finished", "checked", summary.Checked, "flagged", summary.Flagged, "elapsed", summary.Elapsed)
	return summary
}

// probe runs a single entry through Pending -> Probing -> Clean|Flagged.
func (uc *CheckLinksUseCase) probe(ctx context.Context, entry redirect.Entry) (report.Record, bool) {
	// Pacing waits on the run context; the timeout bounds only the request.
	if uc.pacer != nil {
		if err := uc.pacer.Wait(ctx, hostKey(entry.To)); err != nil {
			return brokenRecord(entry, fmt.Sprintf("not probed: %v", err)), true
		}
	}

	if uc.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.opts.Timeout)
		defer cancel()
	}

	started := uc.clock.Now()
	res, err := uc.prober.Probe(ctx, entry.To)
	elapsed := clock.Elapsed(uc.clock, started)

	if err != nil {
		uc.logger.Debug("probe failed", "to", entry.To, "error", err, "elapsed", elapsed)
		return brokenRecord(entry, err.Error()), true
	}

	verdict := uc.classifier.Classify(entry.To, res.StatusCode)
	uc.logger.Debug("probe finished", "to", entry.To, "status", res.StatusCode, "broken", verdict.Broken, "elapsed", elapsed)
	if !verdict.Broken {
		return report.Record{}, false
	}
	return brokenRecord(entry, fmt.Sprintf("status %s (%s)", statusText(res), verdict.Reason)), true
}

func brokenRecord(entry redirect.Entry, cause string) report.Record {
	return report.New(BrokenLinkHeadline,
		"to: "+entry.To,
		cause,
		entry.Source.String(),
	)
}

func statusText(res ports.ProbeResult) string {
	if res.Status != "" {
		return res.Status
	}
	if text := http.StatusText(res.StatusCode); text != "" {
		return fmt.Sprintf("%d %s", res.StatusCode, text)
	}
	return fmt.Sprintf("%d", res.StatusCode)
}

// hostKey groups destinations for pacing; unparsable URLs pace on their own.
func hostKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
