package usecases

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sophialabs/redirectlint/internal/domain/redirect"
	"github.com/sophialabs/redirectlint/internal/domain/report"
	"github.com/sophialabs/redirectlint/internal/infrastructure/ports"
)

// LoadRedirectsUseCase builds the canonical redirect list from every source
// document. Problems are recorded in the collector; one bad source or record
// never stops the rest from loading.
type LoadRedirectsUseCase struct {
	repo   redirect.Repository
	logger ports.Logger
}

// NewLoadRedirectsUseCase creates a new use case.
func NewLoadRedirectsUseCase(repo redirect.Repository, logger ports.Logger) *LoadRedirectsUseCase {
	return &LoadRedirectsUseCase{
		repo:   repo,
		logger: logger,
	}
}

// Execute discovers, parses, validates and deduplicates all sources. The
// returned catalog is never nil. An error is returned only when ctx is done.
func (uc *LoadRedirectsUseCase) Execute(ctx context.Context, sink *report.Collector) (*redirect.Catalog, error) {
	catalog := &redirect.Catalog{}

	files, err := uc.repo.Discover(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return catalog, ctxErr
		}
		if skipped, ok := redirect.Skipped(err); ok {
			for _, s := range skipped {
				sink.Addf(fmt.Sprintf("Couldn't read %s", s.Path), s.Err.Error())
			}
		} else {
			sink.Addf("Couldn't list redirect files", err.Error())
			files = nil
		}
	}
	catalog.Files = files
	uc.logger.Info("discovered redirect files", "count", len(files))

	var occurrences []redirect.Occurrence

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return catalog, err
		}

		items, ok := uc.readList(ctx, file, sink)
		if !ok {
			continue
		}

		accepted := 0
		for i, item := range items {
			src := redirect.Source{File: file, Index: i + 1}
			res := redirect.Normalize(item, src)

			sink.Add(res.Problems...)
			if res.FromOK {
				occurrences = append(occurrences, redirect.Occurrence{From: res.From, Source: src})
			}
			if res.Entry != nil {
				catalog.Entries = append(catalog.Entries, *res.Entry)
				accepted++
			}
		}
		uc.logger.Debug("loaded redirect file", "file", file, "entries", len(items), "accepted", accepted)
	}

	if len(catalog.Entries) == 0 {
		sink.Addf("No redirects")
	}

	sink.Add(redirect.FindDuplicates(occurrences)...)

	uc.logger.Info("redirect list built", "files", len(files), "entries", len(catalog.Entries))
	return catalog, nil
}

// readList reads one source and narrows it to its top-level sequence.
func (uc *LoadRedirectsUseCase) readList(ctx context.Context, file string, sink *report.Collector) ([]*yaml.Node, bool) {
	node, err := uc.repo.ReadDocument(ctx, file)
	switch {
	case errors.Is(err, redirect.ErrParse):
		sink.Addf(fmt.Sprintf("Couldn't parse %s. Make sure it is valid YAML.", file), err.Error())
		return nil, false
	case err != nil:
		sink.Addf(fmt.Sprintf("Couldn't read %s", file), err.Error())
		return nil, false
	}

	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node == nil || node.Kind != yaml.SequenceNode {
		sink.Addf(fmt.Sprintf("%s is not a list", file))
		return nil, false
	}
	return node.Content, true
}
