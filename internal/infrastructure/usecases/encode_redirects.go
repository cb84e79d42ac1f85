package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/sophialabs/redirectlint/internal/domain/redirect"
	"github.com/sophialabs/redirectlint/internal/domain/report"
	"github.com/sophialabs/redirectlint/internal/infrastructure/ports"
	"github.com/sophialabs/redirectlint/internal/infrastructure/services"
)

// EncodeResult describes what the encoder did.
type EncodeResult struct {
	Encoded  string
	Previous string
	// PreviousCount is the number of redirects the script held before, or -1
	// when it held no decodable list.
	PreviousCount int
	Changed       bool
	Written       bool
}

// EncodeRedirectsUseCase encodes the canonical list and splices it into the
// redirect script.
type EncodeRedirectsUseCase struct {
	script  ports.ScriptStore
	splicer *services.Splicer
	logger  ports.Logger
	dryRun  bool
}

// NewEncodeRedirectsUseCase creates a new use case.
func NewEncodeRedirectsUseCase(script ports.ScriptStore, splicer *services.Splicer, logger ports.Logger) *EncodeRedirectsUseCase {
	return &EncodeRedirectsUseCase{
		script:  script,
		splicer: splicer,
		logger:  logger,
	}
}

// SetDryRun makes Execute compute the new script without writing it.
func (uc *EncodeRedirectsUseCase) SetDryRun(dryRun bool) {
	uc.dryRun = dryRun
}

// Execute encodes the catalog and updates the script. The file is only
// rewritten when its content changes. An empty catalog leaves the script alone.
func (uc *EncodeRedirectsUseCase) Execute(_ context.Context, catalog *redirect.Catalog, sink *report.Collector) EncodeResult {
	result := EncodeResult{PreviousCount: -1}

	encoded, err := services.EncodeList(catalog.Pairs())
	if err != nil {
		sink.Addf("Couldn't encode redirects list", err.Error())
		return result
	}
	result.Encoded = encoded

	if catalog.Len() == 0 {
		uc.logger.Warn("no redirects to encode, leaving script untouched", "script", uc.script.Path())
		return result
	}

	content, err := uc.script.Read()
	if err != nil {
		sink.Addf(fmt.Sprintf("Couldn't read script %s", uc.script.Path()), err.Error())
		return result
	}

	result.Previous, _ = uc.splicer.Current(content)
	if result.Previous != "" {
		if pairs, err := services.DecodeList(result.Previous); err != nil {
			uc.logger.Warn("previous encoded list unreadable", "script", uc.script.Path(), "error", err)
		} else {
			result.PreviousCount = len(pairs)
		}
	}

	updated, err := uc.splicer.Splice(content, encoded)
	if errors.Is(err, services.ErrDelimiterNotFound) {
		sink.Addf(fmt.Sprintf("Couldn't find encoded redirects list in %s", uc.script.Path()))
		return result
	}
	if err != nil {
		sink.Addf(fmt.Sprintf("Couldn't update script %s", uc.script.Path()), err.Error())
		return result
	}

	result.Changed = string(updated) != string(content)
	if !result.Changed {
		uc.logger.Info("script already up to date", "script", uc.script.Path())
		return result
	}
	if uc.dryRun {
		uc.logger.Info("dry run, script not written", "script", uc.script.Path())
		return result
	}

	if err := uc.script.Write(updated); err != nil {
		sink.Addf(fmt.Sprintf("Couldn't write script %s", uc.script.Path()), err.Error())
		return result
	}
	result.Written = true
	uc.logger.Info("script updated", "script", uc.script.Path(), "entries", catalog.Len())
	return result
}
