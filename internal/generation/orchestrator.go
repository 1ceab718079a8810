// internal/generation/orchestrator.go
package generation

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"ecomlisting-ai/internal/assets"
	apperrors "ecomlisting-ai/internal/common/errors"
	"ecomlisting-ai/internal/common/logger"
	"ecomlisting-ai/internal/common/metrics"
	"ecomlisting-ai/internal/generation/frames"
	"ecomlisting-ai/internal/generation/slides"
	"ecomlisting-ai/internal/store"
)

// TranscriptGenerator produces the narration script for an item.
type TranscriptGenerator interface {
	Generate(ctx context.Context, title, description string) (string, error)
}

// VideoAssembler encodes the narrated slideshow from planned slides and
// rendered frames.
type VideoAssembler interface {
	Assemble(ctx context.Context, workDir, baseName string, slideSet []slides.Slide, frameImages []image.Image) (string, float64, error)
}

// ImageFetcher downloads image URLs, tolerating individual failures.
type ImageFetcher interface {
	Download(ctx context.Context, urls []string) [][]byte
}

// ResultRecorder receives persisted results for observational bookkeeping.
// Failures never affect the run.
type ResultRecorder interface {
	RecordResult(ctx context.Context, item Item, res *Result)
}

// Settings are the orchestrator's rendering and layout constants.
type Settings struct {
	CanvasWidth        int
	CanvasHeight       int
	SlideMaxWidthPx    int
	SlideMaxLines      int
	WorkDir            string
	OutputBaseDir      string
	StoreRootPrefix    string
	StoreOutputsFolder string
}

// Deps are the orchestrator's collaborators. Store and Recorder may be nil.
// Downloader may be nil only when no item carries URL sources; URL sources
// without a downloader are skipped with a warning.
type Deps struct {
	Bundle      *assets.Bundle
	Transcripts TranscriptGenerator
	Assembler   VideoAssembler
	Downloader  ImageFetcher
	Store       store.Store
	Recorder    ResultRecorder
	Logger      logger.Logger
}

// Orchestrator runs one item at a time through the pipeline state machine:
// Requested -> InputsResolved -> TranscriptReady -> SlidesPlanned ->
// Rendering -> Encoded -> Persisted, or Failed at the first fatal error.
type Orchestrator struct {
	settings Settings
	bundle   *assets.Bundle
	composer *frames.Composer
	textgen  TranscriptGenerator
	asm      VideoAssembler
	fetcher  ImageFetcher
	store    store.Store
	recorder ResultRecorder
	cache    Cache
	logger   logger.Logger
}

func NewOrchestrator(settings Settings, deps Deps) *Orchestrator {
	return &Orchestrator{
		settings: settings,
		bundle:   deps.Bundle,
		composer: frames.NewComposer(settings.CanvasWidth, settings.CanvasHeight,
			deps.Bundle.Regular, deps.Bundle.Bold, deps.Bundle.Logo),
		textgen:  deps.Transcripts,
		asm:      deps.Assembler,
		fetcher:  deps.Downloader,
		store:    deps.Store,
		recorder: deps.Recorder,
		cache:    Cache{OutputBaseDir: settings.OutputBaseDir},
		logger:   deps.Logger,
	}
}

// Cache exposes the output cache so callers can inspect deterministic paths.
func (o *Orchestrator) Cache() Cache {
	return o.cache
}

// Generate runs item to completion. There are no internal retries; the only
// retrying layer is inside the blob store adapter.
func (o *Orchestrator) Generate(ctx context.Context, item Item) (*Result, error) {
	if err := item.Validate(); err != nil {
		o.countFailure(err)
		return nil, err
	}

	key := item.Key()
	log := o.logger.WithFields(map[string]interface{}{"itemKey": key})

	if res, ok := o.cache.Lookup(key); ok {
		metrics.CacheHits.Inc()
		log.Info("all artifacts present, serving from cache", map[string]interface{}{
			"outputDir": res.OutputDir,
		})
		o.record(ctx, item, res)
		return res, nil
	}

	res, err := o.run(ctx, log, item, key)
	if err != nil {
		o.countFailure(err)
		log.Error("generation failed", map[string]interface{}{
			"state": string(StateFailed),
			"code":  string(apperrors.CodeOf(err)),
			"error": err.Error(),
		})
		return nil, err
	}

	metrics.ItemsCompleted.Inc()
	o.record(ctx, item, res)
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, log logger.Logger, item Item, key string) (*Result, error) {
	o.transition(log, StateRequested)

	payloads := o.resolveImages(ctx, log, item)
	if len(payloads) == 0 {
		return nil, apperrors.NewInputInvalidError("no images available after resolution")
	}
	o.transition(log, StateInputsResolved)

	transcript, err := o.timedTranscript(ctx, item)
	if err != nil {
		return nil, err
	}
	o.transition(log, StateTranscriptReady)

	slideSet := slides.Plan(transcript, slides.FaceMeasure(o.bundle.Regular),
		o.settings.SlideMaxWidthPx, o.settings.SlideMaxLines)
	if len(slideSet) == 0 {
		return nil, apperrors.NewInputInvalidError("transcript paginated to zero slides")
	}
	o.transition(log, StateSlidesPlanned)

	frameImages, err := o.renderFrames(item, payloads, slideSet)
	if err != nil {
		return nil, err
	}
	o.transition(log, StateRendering)

	scratchDir := filepath.Join(o.settings.WorkDir,
		fmt.Sprintf("%s_%s", key, uuid.NewString()[:8]))
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, apperrors.NewEncodeFailedError(fmt.Errorf("scratch dir: %w", err))
	}
	defer os.RemoveAll(scratchDir)

	done := o.stageTimer("assemble")
	scratchVideo, duration, err := o.asm.Assemble(ctx, scratchDir, key, slideSet, frameImages)
	done()
	if err != nil {
		return nil, err
	}
	o.transition(log, StateEncoded)

	res, err := o.persist(ctx, log, key, scratchVideo, transcript, item.Title)
	if err != nil {
		return nil, err
	}
	res.SlideCount = len(slideSet)
	res.Duration = duration
	o.transition(log, StatePersisted)

	return res, nil
}

// resolveImages turns every source into raw bytes, preserving input order.
// Individual download and read failures are tolerated.
func (o *Orchestrator) resolveImages(ctx context.Context, log logger.Logger, item Item) [][]byte {
	defer o.stageTimer("resolve_images")()

	var payloads [][]byte
	for _, src := range item.Images {
		switch {
		case len(src.Data) > 0:
			payloads = append(payloads, src.Data)
		case src.Path != "":
			data, err := os.ReadFile(src.Path)
			if err != nil {
				log.Warn("image file unreadable, skipping", map[string]interface{}{
					"path":  src.Path,
					"error": err.Error(),
				})
				continue
			}
			payloads = append(payloads, data)
		case src.URL != "":
			if o.fetcher == nil {
				log.Warn("no image downloader configured, skipping URL source", map[string]interface{}{
					"url": src.URL,
				})
				continue
			}
			payloads = append(payloads, o.fetcher.Download(ctx, []string{src.URL})...)
		}
	}
	return payloads
}

func (o *Orchestrator) timedTranscript(ctx context.Context, item Item) (string, error) {
	defer o.stageTimer("transcript")()
	return o.textgen.Generate(ctx, item.Title, item.Description)
}

// renderFrames composes one frame per slide. With fewer images than slides
// the images cycle: frame i uses image i mod N.
func (o *Orchestrator) renderFrames(item Item, payloads [][]byte, slideSet []slides.Slide) ([]image.Image, error) {
	defer o.stageTimer("render")()

	decoded := make([]image.Image, len(payloads))
	for i, payload := range payloads {
		img, err := frames.Decode(fmt.Sprintf("image[%d]", i), payload)
		if err != nil {
			return nil, err
		}
		decoded[i] = img
	}

	out := make([]image.Image, len(slideSet))
	for i, slide := range slideSet {
		out[i] = o.composer.Render(decoded[i%len(decoded)], item.Title, slide.Lines)
	}
	return out, nil
}

// persist writes the three artifacts to the deterministic output paths and,
// when a blob store is configured, uploads them under outputs/<key>/.
// Re-runs overwrite.
func (o *Orchestrator) persist(ctx context.Context, log logger.Logger, key, scratchVideo, transcript, title string) (*Result, error) {
	defer o.stageTimer("persist")()

	dir, videoPath, blogPath, titlePath := o.cache.Paths(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewStorePermanentError("persist_local", err)
	}

	if err := moveFile(scratchVideo, videoPath); err != nil {
		return nil, apperrors.NewStorePermanentError("persist_local", err)
	}
	if err := os.WriteFile(blogPath, []byte(transcript), 0o644); err != nil {
		return nil, apperrors.NewStorePermanentError("persist_local", err)
	}
	if err := os.WriteFile(titlePath, []byte(title), 0o644); err != nil {
		return nil, apperrors.NewStorePermanentError("persist_local", err)
	}

	if o.store != nil {
		if err := o.upload(ctx, key, videoPath, transcript, title); err != nil {
			return nil, err
		}
		log.Info("artifacts uploaded", map[string]interface{}{
			"folder": key,
		})
	}

	return &Result{
		Key:       key,
		OutputDir: dir,
		VideoPath: videoPath,
		BlogPath:  blogPath,
		TitlePath: titlePath,
	}, nil
}

func (o *Orchestrator) upload(ctx context.Context, key, videoPath, transcript, title string) error {
	parent, err := o.store.FindOrCreateFolder(ctx, o.settings.StoreOutputsFolder, o.settings.StoreRootPrefix)
	if err != nil {
		return err
	}
	folder, err := o.store.FindOrCreateFolder(ctx, key, parent)
	if err != nil {
		return err
	}

	videoData, err := os.ReadFile(videoPath)
	if err != nil {
		return apperrors.NewStorePermanentError("upload", err)
	}

	if err := o.store.Put(ctx, key+".mp4", videoData, "video/mp4", folder); err != nil {
		return err
	}
	if err := o.store.Put(ctx, key+"_blog.txt", []byte(transcript), "text/plain", folder); err != nil {
		return err
	}
	return o.store.Put(ctx, key+"_title.txt", []byte(title), "text/plain", folder)
}

func (o *Orchestrator) record(ctx context.Context, item Item, res *Result) {
	if o.recorder != nil {
		o.recorder.RecordResult(ctx, item, res)
	}
}

func (o *Orchestrator) transition(log logger.Logger, state State) {
	log.Info("state transition", map[string]interface{}{
		"state": string(state),
	})
}

func (o *Orchestrator) stageTimer(stage string) func() {
	start := time.Now()
	return func() {
		metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

func (o *Orchestrator) countFailure(err error) {
	code := apperrors.CodeOf(err)
	if code == "" {
		code = "UNKNOWN"
	}
	metrics.ItemsFailed.WithLabelValues(string(code)).Inc()
}

// moveFile renames when possible and falls back to a copy for cross-device
// scratch directories.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
