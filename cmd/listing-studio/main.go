// cmd/listing-studio/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ecomlisting-ai/internal/assets"
	"ecomlisting-ai/internal/batch"
	"ecomlisting-ai/internal/common/config"
	"ecomlisting-ai/internal/common/logger"
	"ecomlisting-ai/internal/generation"
	"ecomlisting-ai/internal/generation/speech"
	"ecomlisting-ai/internal/generation/transcript"
	"ecomlisting-ai/internal/generation/video"
	"ecomlisting-ai/internal/images"
	"ecomlisting-ai/internal/ledger"
	"ecomlisting-ai/internal/store"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config.yaml (defaults to configs/config.yaml)")
		mode        = flag.String("mode", "both", "outputs to report: video, blog or both")
		title       = flag.String("title", "", "product title (single-item mode)")
		description = flag.String("description", "", "product description (single-item mode)")
		imageList   = flag.String("images", "", "comma-separated image URLs or file paths (single-item mode)")
		csvPath     = flag.String("csv", "", "catalog CSV path (batch mode)")
		imagesJSON  = flag.String("images-json", "", "optional image manifest JSON (batch mode)")
	)
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting listing studio", zap.String("app", cfg.App.String()))

	outputMode, err := generation.ParseOutputMode(*mode)
	if err != nil {
		zapLog.Fatal("invalid mode", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			zapLog.Info("metrics server listening", zap.String("address", cfg.Metrics.Address))
			if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
				zapLog.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	// --- Blob store and asset resolution ---
	var blobStore store.Store
	fontsLocation := cfg.Service.FontsLocation
	logoLocation := cfg.Service.LogoLocation

	if cfg.Store.Enabled {
		retry := store.DefaultRetryPolicy()
		if cfg.Store.MaxAttempts > 0 {
			retry.MaxAttempts = cfg.Store.MaxAttempts
		}
		if cfg.Store.BackoffBase > 0 {
			retry.BackoffBase = config.GetDuration(cfg.Store.BackoffBase)
		}

		s3Store, err := store.NewS3Store(ctx, cfg.Store.Region, cfg.Store.Bucket, retry, log)
		if err != nil {
			zapLog.Fatal("blob store init failed", zap.Error(err))
		}
		blobStore = s3Store

		assetDir := filepath.Join(cfg.Service.WorkDir, "assets")
		fontsLocation, logoLocation, err = assets.PreloadFromStore(ctx, blobStore,
			cfg.Store.RootPrefix, cfg.Store.FontsFolder, cfg.Store.LogoFolder, assetDir, log)
		if err != nil {
			zapLog.Fatal("asset preload failed", zap.Error(err))
		}
		zapLog.Info("assets preloaded from blob store", zap.String("dir", assetDir))
	}

	loader := &assets.Loader{
		FontsLocation: fontsLocation,
		LogoLocation:  logoLocation,
		RegularName:   cfg.Pipeline.RegularFontName,
		BoldName:      cfg.Pipeline.BoldFontName,
		RegularSize:   cfg.Pipeline.RegularFontSize,
		BoldSize:      cfg.Pipeline.BoldFontSize,
		Logger:        log,
	}
	bundle, err := loader.Load()
	if err != nil {
		zapLog.Fatal("asset load failed", zap.Error(err))
	}

	// --- Observational ledger ---
	var recorder generation.ResultRecorder
	if cfg.Redis.Enabled {
		led := ledger.New(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Redis.LedgerTTL)*time.Minute, log)
		defer led.Close()
		if err := led.Ping(ctx); err != nil {
			zapLog.Warn("ledger redis unreachable, results will not be recorded", zap.Error(err))
		} else {
			recorder = &ledgerRecorder{ledger: led}
		}
	}

	// --- Pipeline wiring ---
	synth := speech.NewSynthesizer(cfg.APIs.Speech, log)
	assembler := video.NewAssembler(video.ExecRunner{}, synth, video.Options{
		FFmpegPath:       cfg.Pipeline.FFmpegPath,
		FFprobePath:      cfg.Pipeline.FFprobePath,
		FPS:              cfg.Pipeline.FPS,
		MinNarrationSize: cfg.Pipeline.MinNarrationSize,
	}, log)

	orch := generation.NewOrchestrator(generation.Settings{
		CanvasWidth:        cfg.Pipeline.CanvasWidth,
		CanvasHeight:       cfg.Pipeline.CanvasHeight,
		SlideMaxWidthPx:    cfg.Pipeline.SlideMaxWidthPx,
		SlideMaxLines:      cfg.Pipeline.SlideMaxLines,
		WorkDir:            cfg.Service.WorkDir,
		OutputBaseDir:      cfg.Service.OutputBaseDir,
		StoreRootPrefix:    cfg.Store.RootPrefix,
		StoreOutputsFolder: cfg.Store.OutputsFolder,
	}, generation.Deps{
		Bundle:      bundle,
		Transcripts: transcript.NewGenerator(cfg.APIs.TextGen, log),
		Assembler:   assembler,
		Downloader:  images.NewDownloader(config.GetDuration(cfg.Pipeline.ImageTimeout), log),
		Store:       blobStore,
		Recorder:    recorder,
		Logger:      log,
	})

	if *csvPath != "" {
		if err := runBatch(ctx, orch, cfg, zapLog, log, *csvPath, *imagesJSON); err != nil {
			zapLog.Fatal("batch run failed", zap.Error(err))
		}
		return
	}

	if err := runSingle(ctx, orch, cfg, zapLog, outputMode, *title, *description, *imageList); err != nil {
		zapLog.Fatal("generation failed", zap.Error(err))
	}
}

func runSingle(ctx context.Context, orch *generation.Orchestrator, cfg *config.Config, zapLog *zap.Logger, mode generation.OutputMode, title, description, imageList string) error {
	if title == "" || description == "" || imageList == "" {
		return fmt.Errorf("single-item mode requires -title, -description and -images (or use -csv)")
	}

	item := generation.Item{
		Title:       title,
		Description: description,
	}
	for _, ref := range strings.Split(imageList, ",") {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		item.Images = append(item.Images, imageSource(cfg.Service.ImageSourceHint, ref))
	}

	res, err := orch.Generate(ctx, item)
	if err != nil {
		return err
	}

	zapLog.Info("generation complete",
		zap.String("key", res.Key),
		zap.Bool("cacheHit", res.CacheHit),
		zap.Int("slides", res.SlideCount),
		zap.Float64("durationSeconds", res.Duration),
	)
	for _, artifact := range res.Artifacts(mode) {
		fmt.Println(artifact)
	}
	return nil
}

func runBatch(ctx context.Context, orch *generation.Orchestrator, cfg *config.Config, zapLog *zap.Logger, log logger.Logger, csvPath, imagesJSONPath string) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open catalog CSV: %w", err)
	}
	defer f.Close()

	rows, err := batch.ParseCSV(f)
	if err != nil {
		return err
	}

	var sideImages map[string][]string
	if imagesJSONPath != "" {
		data, err := os.ReadFile(imagesJSONPath)
		if err != nil {
			return fmt.Errorf("read image manifest: %w", err)
		}
		sideImages, err = batch.ParseImagesJSON(data)
		if err != nil {
			return err
		}
	}

	driver := batch.NewDriver(orch, cfg.Batch.MaxConsecutiveFailures, log)
	summary, err := driver.Run(ctx, rows, sideImages)

	zapLog.Info("batch finished",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Bool("aborted", summary.Aborted),
	)
	for _, res := range summary.Results {
		fmt.Println(res.OutputDir)
	}
	return err
}

// imageSource interprets one image reference according to the configured
// source hint; without a hint, an existing local file wins over a URL read.
func imageSource(hint, ref string) generation.ImageSource {
	switch hint {
	case "url":
		return generation.ImageSource{URL: ref}
	case "local":
		return generation.ImageSource{Path: ref}
	}
	if _, err := os.Stat(ref); err == nil {
		return generation.ImageSource{Path: ref}
	}
	return generation.ImageSource{URL: ref}
}

// ledgerRecorder adapts the redis ledger to the orchestrator's recorder hook.
type ledgerRecorder struct {
	ledger *ledger.Ledger
}

func (r *ledgerRecorder) RecordResult(ctx context.Context, item generation.Item, res *generation.Result) {
	_ = r.ledger.Record(ctx, ledger.Entry{
		Key:         res.Key,
		VideoPath:   res.VideoPath,
		BlogPath:    res.BlogPath,
		TitlePath:   res.TitlePath,
		Fingerprint: ledger.Fingerprint(item.Title, item.Description, item.ImageRefs()),
		CacheHit:    res.CacheHit,
		CreatedAt:   time.Now().UTC(),
	})
}
