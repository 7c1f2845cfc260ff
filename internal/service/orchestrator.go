package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/subglot/subglot/internal/config"
	"github.com/subglot/subglot/internal/matcher"
	"github.com/subglot/subglot/internal/progress"
	"github.com/subglot/subglot/internal/tmdb"
	"github.com/subglot/subglot/internal/translator"
	"github.com/subglot/subglot/pkg/file"
	"github.com/subglot/subglot/pkg/log"
)

const (
	StatusSuccess = "Success"
	StatusFailed  = "Failed"
)

// ErrBusy is returned when a translation run is already in flight.
var ErrBusy = errors.New("a translation job is already running")

// ErrNoSelection is returned for a run over an empty pair list.
var ErrNoSelection = errors.New("no subtitle files selected")

// Result is the per-file outcome of a translation run, in input order.
type Result struct {
	OriginalSubtitle   string `json:"original_subtitle"`
	TranslatedSubtitle string `json:"translated_subtitle,omitempty"`
	Status             string `json:"status"`
	Error              string `json:"error,omitempty"`
}

// FileTranslator translates one subtitle file end to end.
type FileTranslator interface {
	TranslateFile(ctx context.Context, inputPath, outputPath string, onProgress func(current, total int)) error
}

// TranslatorFactory builds a translator for one run from the effective
// settings and the optional media description.
type TranslatorFactory func(settings config.Settings, description string) FileTranslator

// Orchestrator drives translation runs: it merges overrides into the
// persisted settings, walks the selected pairs in order and reports
// progress through the broadcaster. Only one run may be active at a time.
type Orchestrator struct {
	settings      *config.SettingsManager
	broadcaster   *progress.Broadcaster
	searcher      tmdb.Searcher
	newTranslator TranslatorFactory
	uploadDir     string
	translatedDir string

	busy atomic.Bool
}

func NewOrchestrator(
	settings *config.SettingsManager,
	broadcaster *progress.Broadcaster,
	searcher tmdb.Searcher,
	factory TranslatorFactory,
	uploadDir, translatedDir string,
) *Orchestrator {
	return &Orchestrator{
		settings:      settings,
		broadcaster:   broadcaster,
		searcher:      searcher,
		newTranslator: factory,
		uploadDir:     uploadDir,
		translatedDir: translatedDir,
	}
}

// Busy reports whether a run is currently active.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Run translates every pair in order and returns one result per pair.
// Overrides are merged into the persisted settings before the run
// starts; an invalid override fails the whole run up front.
func (o *Orchestrator) Run(ctx context.Context, pairs []matcher.Pair, overrides map[string]any) ([]Result, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer o.busy.Store(false)

	if len(pairs) == 0 {
		return nil, ErrNoSelection
	}

	settings := o.settings.Get()
	if len(overrides) > 0 {
		updated, err := o.settings.Update(overrides)
		if err != nil {
			return nil, err
		}
		settings = updated
	}

	runID := uuid.NewString()
	log.Info("Starting translation run %s: %d pairs, language=%s, model=%s",
		runID, len(pairs), settings.Language, settings.Model)

	description := o.describeMedia(ctx, pairs, settings)
	trans := o.newTranslator(settings, description)

	results := make([]Result, 0, len(pairs))
	succeeded := 0
	total := len(pairs)
	for i, pair := range pairs {
		if ctx.Err() != nil {
			// Remaining pairs in a canceled run still get a result row.
			results = append(results, canceledResult(pair))
			continue
		}
		result := o.translatePair(ctx, trans, pair, settings, i+1, total)
		if result.Status == StatusSuccess {
			succeeded++
		}
		results = append(results, result)
	}

	log.Info("Translation run %s finished: %d/%d succeeded", runID, succeeded, total)
	o.broadcaster.PublishProgress("Translation complete", total, total, "")
	return results, nil
}

func (o *Orchestrator) translatePair(ctx context.Context, trans FileTranslator, pair matcher.Pair, settings config.Settings, current, total int) Result {
	if pair.Subtitle == nil {
		name := ""
		if pair.Video != nil {
			name = filepath.Base(pair.Video.Path)
		}
		return Result{
			OriginalSubtitle: name,
			Status:           StatusFailed,
			Error:            "no subtitle file in pair",
		}
	}

	name := filepath.Base(pair.Subtitle.Path)
	o.broadcaster.PublishProgress("Translating", current, total, name)

	inputPath := filepath.Join(o.uploadDir, file.SafeBaseName(name))
	outputName := file.Stem(name) + "." + settings.LanguageCode + filepath.Ext(name)
	outputPath := filepath.Join(o.translatedDir, outputName)

	err := trans.TranslateFile(ctx, inputPath, outputPath, func(chunk, chunks int) {
		o.broadcaster.PublishTranslationProgress(current, total, name, chunk, chunks)
	})
	if err != nil {
		log.Error("Translation of %s failed: %v", name, err)
		return Result{
			OriginalSubtitle: name,
			Status:           StatusFailed,
			Error:            translator.UserMessage(err),
		}
	}

	log.Info("Translated %s -> %s", name, outputName)
	return Result{
		OriginalSubtitle:   name,
		TranslatedSubtitle: outputName,
		Status:             StatusSuccess,
	}
}

// describeMedia resolves prompt context for the run. An explicit
// description wins; otherwise TMDB is consulted for the first pair that
// has a video file. Lookup failure only costs the context, not the run.
func (o *Orchestrator) describeMedia(ctx context.Context, pairs []matcher.Pair, settings config.Settings) string {
	if settings.Description != "" {
		return settings.Description
	}
	if !settings.AutoFetchTMDB || o.searcher == nil {
		return ""
	}

	name := ""
	for _, pair := range pairs {
		if pair.Video != nil {
			name = filepath.Base(pair.Video.Path)
			break
		}
		if pair.Subtitle != nil && name == "" {
			name = filepath.Base(pair.Subtitle.Path)
		}
	}
	if name == "" {
		return ""
	}

	info, err := tmdb.Lookup(ctx, o.searcher, name, settings.IsTVSeries)
	if err != nil {
		log.Warn("TMDB lookup for %s failed: %v", name, err)
		return ""
	}
	log.Info("Using TMDB context: %s", info.Title)
	return info.Description()
}

func canceledResult(pair matcher.Pair) Result {
	name := ""
	if pair.Subtitle != nil {
		name = filepath.Base(pair.Subtitle.Path)
	} else if pair.Video != nil {
		name = filepath.Base(pair.Video.Path)
	}
	return Result{
		OriginalSubtitle: name,
		Status:           StatusFailed,
		Error:            "translation canceled",
	}
}
