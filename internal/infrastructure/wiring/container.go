package wiring

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sophialabs/redirectlint/internal/infrastructure/outbound/clock"
	"github.com/sophialabs/redirectlint/internal/infrastructure/outbound/filesystem"
	"github.com/sophialabs/redirectlint/internal/infrastructure/outbound/httpprobe"
	"github.com/sophialabs/redirectlint/internal/infrastructure/outbound/ratelimit"
	"github.com/sophialabs/redirectlint/internal/infrastructure/ports"
	"github.com/sophialabs/redirectlint/internal/infrastructure/services"
	"github.com/sophialabs/redirectlint/internal/infrastructure/usecases"
)

// CheckParams configures the link checker.
type CheckParams struct {
	Concurrency    int
	Timeout        time.Duration
	BrokenStatuses []int // nil = services.DefaultBrokenStatuses
	BrokenRule     string
	HostRate       float64 // requests per second per host, 0 = unpaced
	HostBurst      int
	Method         string
	UserAgent      string
}

// EncodeParams configures the encoder. An empty ScriptPath disables it.
type EncodeParams struct {
	ScriptPath string
	Pattern    string
	DryRun     bool
}

// Params holds the subset of configuration needed to construct infrastructure components.
type Params struct {
	RootDir    string
	Recursive  bool
	Exclude    []string
	LimiterTTL time.Duration
	Logger     ports.Logger
	Check      CheckParams
	Encode     EncodeParams
}

// Container owns the construction and lifecycle of all infrastructure components.
type Container struct {
	logger      ports.Logger
	repo        *filesystem.YAMLRepository
	loadUC      *usecases.LoadRedirectsUseCase
	checkUC     *usecases.CheckLinksUseCase
	encodeUC    *usecases.EncodeRedirectsUseCase
	prober      *httpprobe.Client
	hostLimiter *ratelimit.HostLimiter
	closeOnce   sync.Once
}

// New constructs all infrastructure components. Fallible operations (repository,
// classifier, splicer) run before goroutine-starting operations (host limiter)
// to avoid goroutine leaks on early failure.
func New(p Params) (*Container, error) {
	if _, err := os.Stat(p.RootDir); err != nil {
		return nil, fmt.Errorf("failed to access root directory: %w", err)
	}

	repo, err := filesystem.NewYAMLRepository(p.RootDir, filesystem.Options{
		Recursive: p.Recursive,
		Exclude:   p.Exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}

	classifier, err := services.NewClassifier(p.Check.BrokenStatuses, p.Check.BrokenRule)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}

	var encodeUC *usecases.EncodeRedirectsUseCase
	if p.Encode.ScriptPath != "" {
		pattern := p.Encode.Pattern
		if pattern == "" {
			pattern = services.DefaultSplicePattern
		}
		splicer, err := services.NewSplicer(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to create splicer: %w", err)
		}
		encodeUC = usecases.NewEncodeRedirectsUseCase(filesystem.NewScriptFile(p.Encode.ScriptPath), splicer, p.Logger)
		encodeUC.SetDryRun(p.Encode.DryRun)
	}

	// Start background goroutine only after all fallible ops succeed.
	hostLimiter := ratelimit.NewHostLimiter(p.Check.HostRate, p.Check.HostBurst, p.LimiterTTL)

	prober := httpprobe.New(httpprobe.Options{
		Method:    p.Check.Method,
		UserAgent: p.Check.UserAgent,
		Timeout:   p.Check.Timeout,
	})

	loadUC := usecases.NewLoadRedirectsUseCase(repo, p.Logger)
	checkUC := usecases.NewCheckLinksUseCase(prober, classifier, clock.New(), p.Logger, usecases.CheckOptions{
		Concurrency: p.Check.Concurrency,
		Timeout:     p.Check.Timeout,
	})
	if hostLimiter.Enabled() {
		checkUC.SetPacer(hostLimiter)
	}

	return &Container{
		logger:      p.Logger,
		repo:        repo,
		loadUC:      loadUC,
		checkUC:     checkUC,
		encodeUC:    encodeUC,
		prober:      prober,
		hostLimiter: hostLimiter,
	}, nil
}

// Close releases resources held by the container. It is idempotent.
func (c *Container) Close() {
	c.closeOnce.Do(func() {
		c.hostLimiter.Stop()
		c.prober.CloseIdle()
	})
}

// Logger returns the logger passed at construction time.
func (c *Container) Logger() ports.Logger {
	return c.logger
}

// Repository returns the source repository.
func (c *Container) Repository() *filesystem.YAMLRepository {
	return c.repo
}

// LoadRedirectsUseCase returns the use case that builds the canonical list.
func (c *Container) LoadRedirectsUseCase() *usecases.LoadRedirectsUseCase {
	return c.loadUC
}

// CheckLinksUseCase returns the link checker.
func (c *Container) CheckLinksUseCase() *usecases.CheckLinksUseCase {
	return c.checkUC
}

// EncodeRedirectsUseCase returns the encoder, or nil when no script is configured.
func (c *Container) EncodeRedirectsUseCase() *usecases.EncodeRedirectsUseCase {
	return c.encodeUC
}
