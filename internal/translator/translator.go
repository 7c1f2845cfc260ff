package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/subglot/subglot/internal/cache"
	"github.com/subglot/subglot/internal/llm"
	"github.com/subglot/subglot/internal/subtitle"
	"github.com/subglot/subglot/pkg/log"
)

const (
	// lineSeparator delimits cue texts inside a single batched prompt and
	// the model's response. Chosen to never occur in real subtitle text.
	lineSeparator = "@@@"
	// inlineBreakToken stands in for newlines inside a single cue so the
	// separator protocol stays one-line-per-cue.
	inlineBreakToken = "[BR]"

	defaultBatchSize = 50
)

// TranslationClient is the LLM surface the translator needs.
type TranslationClient interface {
	Complete(ctx context.Context, prompt string, systemPrompt string) (string, error)
}

// CacheStore persists batch translations keyed by source text, language
// and model.
type CacheStore interface {
	Lookup(ctx context.Context, key string) (cache.Entry, bool, error)
	Store(ctx context.Context, entry cache.Entry) error
}

// Options configures a single translation job.
type Options struct {
	// Language is the human-readable target language used in prompts.
	Language string
	// LanguageCode is the short code used in cache keys and output names.
	LanguageCode string
	Model        string
	// BatchSize is the number of cues sent per model call.
	BatchSize int
	// MaxBatchChars, when positive, caps the total source characters per
	// batch. A single cue is never split even if it alone exceeds the cap.
	MaxBatchChars int
	MaxAttempts   int
	// Description gives the model context about the media being translated.
	Description string
	// AddTranslatorInfo appends a credit cue at the end of the output.
	AddTranslatorInfo bool
}

func (o *Options) normalize() {
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
}

// Translator translates subtitle files batch by batch through an LLM,
// consulting the cache before every model call.
type Translator struct {
	client TranslationClient
	cache  CacheStore
	opts   Options
	retry  *retryPolicy
}

func New(client TranslationClient, cacheStore CacheStore, opts Options) *Translator {
	opts.normalize()
	return &Translator{
		client: client,
		cache:  cacheStore,
		opts:   opts,
		retry:  newRetryPolicy(opts.MaxAttempts),
	}
}

// TranslateFile reads inputPath, translates every cue into the target
// language and writes the result to outputPath. onProgress is invoked
// after each completed batch with (done, total); it may be nil.
func (t *Translator) TranslateFile(ctx context.Context, inputPath, outputPath string, onProgress func(current, total int)) error {
	reader := subtitle.NewReader(inputPath)
	file, err := reader.Read()
	if err != nil {
		return WrapError(err, ErrParse, "failed to parse subtitle file")
	}
	if len(file.Cues) == 0 {
		return NewError(ErrValidation, "subtitle file contains no cues")
	}

	batches := splitBatches(file.Cues, t.opts.BatchSize, t.opts.MaxBatchChars)
	log.Info("Translating %s: %d cues in %d batches (model=%s, language=%s)",
		inputPath, len(file.Cues), len(batches), t.opts.Model, t.opts.Language)

	for i, batch := range batches {
		// Cancellation is honored between batches. An in-flight batch is
		// allowed to finish so its result still lands in the cache.
		if err := ctx.Err(); err != nil {
			return WrapError(err, ErrService, "translation canceled")
		}
		if err := t.translateBatch(ctx, batch); err != nil {
			return err
		}
		if onProgress != nil {
			onProgress(i+1, len(batches))
		}
	}

	if t.opts.AddTranslatorInfo {
		appendCreditCue(file, t.opts.Model)
	}

	writer := subtitle.NewWriter()
	if err := writer.Write(outputPath, file); err != nil {
		return WrapError(err, ErrWrite, "failed to write translated subtitle")
	}
	return nil
}

func (t *Translator) translateBatch(ctx context.Context, batch []*subtitle.Cue) error {
	lines := make([]string, len(batch))
	for i, cue := range batch {
		lines[i] = strings.ReplaceAll(cue.Text, "\n", inlineBreakToken)
	}
	source := strings.Join(lines, lineSeparator)

	key := cache.Key(source, t.opts.LanguageCode, t.opts.Model)
	if entry, ok, err := t.cache.Lookup(ctx, key); err != nil {
		// A broken cache is a forced miss, never a job failure.
		log.Warn("Cache lookup failed, translating without cache: %v", err)
	} else if ok {
		translated, splitErr := splitResponse(entry.Translated, len(batch))
		if splitErr == nil {
			applyTranslations(batch, translated)
			log.Debug("Cache hit for batch of %d cues", len(batch))
			return nil
		}
		log.Warn("Discarding malformed cache entry %s: %v", key, splitErr)
	}

	prompt := t.buildPrompt(source, len(batch))
	var translated []string
	err := t.retry.do(ctx, func() error {
		// The model call itself runs to completion even if the job is
		// canceled mid-batch.
		response, callErr := t.client.Complete(context.WithoutCancel(ctx), prompt, t.systemPrompt())
		if callErr != nil {
			return callErr
		}
		parsed, parseErr := splitResponse(response, len(batch))
		if parseErr != nil {
			return parseErr
		}
		translated = parsed
		return nil
	}, retryableBatchError)
	if err != nil {
		return WrapError(err, ErrService, fmt.Sprintf("batch of %d cues failed after %d attempts", len(batch), t.opts.MaxAttempts))
	}

	applyTranslations(batch, translated)

	entry := cache.Entry{
		Key:        key,
		Translated: strings.Join(translated, lineSeparator),
		Model:      t.opts.Model,
		Language:   t.opts.LanguageCode,
		CreatedAt:  time.Now().UTC(),
	}
	if err := t.cache.Store(ctx, entry); err != nil {
		log.Warn("Failed to cache batch translation: %v", err)
	}
	return nil
}

func (t *Translator) systemPrompt() string {
	return "You are a professional subtitle translator. You translate subtitle text precisely, preserving tone, register and timing-friendly brevity. You never add commentary."
}

func (t *Translator) buildPrompt(source string, count int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Translate the following %d subtitle lines into %s.\n", count, t.opts.Language)
	if t.opts.Description != "" {
		fmt.Fprintf(&sb, "Context about the media: %s\n", t.opts.Description)
	}
	sb.WriteString("The lines are separated by " + lineSeparator + ". ")
	sb.WriteString("Line breaks inside a subtitle are marked with " + inlineBreakToken + "; keep those markers in place.\n")
	fmt.Fprintf(&sb, "Return ONLY the %d translated lines, in the same order, separated by %s. Do not merge, drop or renumber lines.\n\n", count, lineSeparator)
	sb.WriteString(source)
	return sb.String()
}

// malformedResponseError marks a model reply whose line count does not
// match the batch. It is retryable: the next attempt may comply.
type malformedResponseError struct {
	want, got int
}

func (e *malformedResponseError) Error() string {
	return fmt.Sprintf("model returned %d lines, expected %d", e.got, e.want)
}

func retryableBatchError(err error) bool {
	var malformed *malformedResponseError
	if e, ok := err.(*malformedResponseError); ok {
		malformed = e
	}
	return malformed != nil || llm.IsRetryable(err)
}

func splitResponse(response string, want int) ([]string, error) {
	parts := strings.Split(strings.TrimSpace(response), lineSeparator)
	if len(parts) != want {
		return nil, &malformedResponseError{want: want, got: len(parts)}
	}
	out := make([]string, len(parts))
	for i, part := range parts {
		out[i] = strings.ReplaceAll(strings.TrimSpace(part), inlineBreakToken, "\n")
	}
	return out, nil
}

func applyTranslations(batch []*subtitle.Cue, translated []string) {
	for i, cue := range batch {
		cue.TranslatedText = translated[i]
	}
}

// splitBatches partitions cues by count and, when maxChars is positive,
// by total source characters. A cue is never split across batches. The
// returned pointers reach into the caller's slice so translations land
// on the original cues.
func splitBatches(cues []subtitle.Cue, batchSize, maxChars int) [][]*subtitle.Cue {
	var batches [][]*subtitle.Cue
	var current []*subtitle.Cue
	chars := 0
	for i := range cues {
		cue := &cues[i]
		cueChars := len(cue.Text)
		full := len(current) >= batchSize
		if !full && maxChars > 0 && len(current) > 0 && chars+cueChars > maxChars {
			full = true
		}
		if full {
			batches = append(batches, current)
			current = nil
			chars = 0
		}
		current = append(current, cue)
		chars += cueChars
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

func appendCreditCue(file *subtitle.File, model string) {
	last := file.Cues[len(file.Cues)-1]
	start := last.EndTime + 500*time.Millisecond
	end := start + 4*time.Second
	credit := subtitle.Cue{
		Index:          last.Index + 1,
		StartTime:      start,
		EndTime:        end,
		Text:           fmt.Sprintf("Translated by %s", model),
		TranslatedText: fmt.Sprintf("Translated by %s", model),
	}
	file.Cues = append(file.Cues, credit)
}
