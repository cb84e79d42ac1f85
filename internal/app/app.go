package app

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/sophialabs/redirectlint/internal/domain/redirect"
	"github.com/sophialabs/redirectlint/internal/domain/report"
	"github.com/sophialabs/redirectlint/internal/infrastructure/outbound/console"
	"github.com/sophialabs/redirectlint/internal/infrastructure/outbound/filesystem"
	"github.com/sophialabs/redirectlint/internal/infrastructure/outbound/logging"
	"github.com/sophialabs/redirectlint/internal/infrastructure/wiring"
)

// Workflow selects what runs after the redirect list is loaded.
type Workflow string

const (
	WorkflowValidate Workflow = "validate"
	WorkflowCheck    Workflow = "check"
	WorkflowEncode   Workflow = "encode"
)

// App is the thin lifecycle manager that delegates dependency construction to wiring.Container.
type App struct {
	cfg       Config
	container *wiring.Container
	reporter  *console.Reporter
}

// New validates cfg for wf and wires infrastructure. Logs go to errOut; the
// report goes to out, failures to errOut.
func New(cfg Config, wf Workflow, out, errOut io.Writer) (*App, error) {
	if err := cfg.Validate(wf); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := logging.NewText(errOut, cfg.LogLevel)

	encode := wiring.EncodeParams{}
	if wf == WorkflowEncode {
		encode = wiring.EncodeParams{
			ScriptPath: cfg.Encode.Script,
			Pattern:    cfg.Encode.Pattern,
			DryRun:     cfg.Encode.DryRun,
		}
	}

	container, err := wiring.New(wiring.Params{
		RootDir:    cfg.RootDir,
		Recursive:  cfg.Recursive,
		Exclude:    withConfigFile(cfg.Exclude),
		LimiterTTL: cfg.LimiterTTL,
		Logger:     logger,
		Check: wiring.CheckParams{
			Concurrency:    cfg.Check.Concurrency,
			Timeout:        cfg.Check.Timeout,
			BrokenStatuses: cfg.Check.BrokenStatuses,
			BrokenRule:     cfg.Check.BrokenExpr,
			HostRate:       cfg.Check.HostRate,
			HostBurst:      cfg.Check.HostBurst,
			Method:         cfg.Check.Method,
			UserAgent:      cfg.Check.UserAgent,
		},
		Encode: encode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to wire infrastructure: %w", err)
	}

	return &App{
		cfg:       cfg,
		container: container,
		reporter:  console.NewReporter(out, errOut),
	}, nil
}

// Close releases infrastructure resources.
func (a *App) Close() {
	a.container.Close()
}

// Run executes wf once and returns the completion status: 0 when nothing was
// recorded, 1 otherwise.
func (a *App) Run(ctx context.Context, wf Workflow) int {
	sink := report.NewCollector()
	a.execute(ctx, wf, sink)
	if a.reporter.Report(sink.Drain()) > 0 {
		return 1
	}
	return 0
}

// Watch runs wf, then runs it again whenever a redirect source changes, until
// SIGINT/SIGTERM or ctx cancellation. It returns the status of the last run.
func (a *App) Watch(ctx context.Context, wf Workflow) int {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := a.container.Logger()
	var status atomic.Int32
	status.Store(int32(a.Run(ctx, wf)))

	watcher, err := filesystem.NewWatcher(a.container.Repository().Root(), filesystem.WatchOptions{
		Debounce:  a.cfg.WatcherDebounce,
		Recursive: a.cfg.Recursive,
		Relevant:  a.container.Repository().IsSource,
	}, logger, func() {
		if ctx.Err() != nil {
			return
		}
		status.Store(int32(a.Run(ctx, wf)))
	})
	if err != nil {
		logger.Error("file watcher not available", "error", err)
		return int(status.Load())
	}
	watcher.Start()
	logger.Info("watching for changes", "root", a.cfg.RootDir)

	<-ctx.Done()
	watcher.Stop()
	logger.Info("watch stopped")
	return int(status.Load())
}

func (a *App) execute(ctx context.Context, wf Workflow, sink *report.Collector) {
	logger := a.container.Logger()

	catalog, err := a.container.LoadRedirectsUseCase().Execute(ctx, sink)
	if err != nil {
		logger.Error("loading interrupted", "error", err)
		sink.Addf("Loading interrupted", err.Error())
		return
	}
	a.reporter.Info("Files", strings.Join(catalog.Files, " "))
	if a.cfg.Verbose {
		a.reporter.Info("Combined redirects list", dumpEntries(catalog.Entries))
	}

	switch wf {
	case WorkflowCheck:
		summary := a.container.CheckLinksUseCase().Execute(ctx, catalog.Entries, sink)
		a.reporter.Info("Links", fmt.Sprintf("%d checked, %d flagged in %s", summary.Checked, summary.Flagged, summary.Elapsed))
	case WorkflowEncode:
		res := a.container.EncodeRedirectsUseCase().Execute(ctx, catalog, sink)
		if a.cfg.Verbose {
			a.reporter.Info("Encoded redirects list", res.Encoded)
			a.reporter.Info("Old encoded redirects list", res.Previous)
		}
		if res.Written {
			a.reporter.Info("Updated script", a.cfg.Encode.Script, redirectCounts(res.PreviousCount, catalog.Len()))
		}
	}
}

func redirectCounts(previous, current int) string {
	if previous < 0 {
		return fmt.Sprintf("%d redirects", current)
	}
	return fmt.Sprintf("%d redirects, was %d", current, previous)
}

type entryDump struct {
	From   string         `yaml:"from"`
	To     string         `yaml:"to"`
	Extra  map[string]any `yaml:"extra,omitempty"`
	Source string         `yaml:"source"`
}

func dumpEntries(entries []redirect.Entry) string {
	dump := make([]entryDump, len(entries))
	for i, e := range entries {
		dump[i] = entryDump{From: e.From, To: e.To, Extra: e.Extra, Source: e.Source.String()}
	}
	out, err := yaml.Marshal(dump)
	if err != nil {
		return err.Error()
	}
	return strings.TrimRight(string(out), "\n")
}

func withConfigFile(exclude []string) []string {
	for _, pattern := range exclude {
		if pattern == ConfigFileName {
			return exclude
		}
	}
	return append(append([]string(nil), exclude...), ConfigFileName)
}
