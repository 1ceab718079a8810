// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"

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
)

// fakeRunner stands in for ffmpeg/ffprobe. Every probe reports 10 seconds
// and every encode writes the requested output file.
type fakeRunner struct{}

func (fakeRunner) Run(ctx context.Context, name string, args ...string) (video.CommandResult, error) {
	if strings.Contains(name, "ffprobe") {
		return video.CommandResult{Stdout: "10.000000\n"}, nil
	}
	out := args[len(args)-1]
	if err := os.WriteFile(out, []byte("encoded-mp4"), 0o644); err != nil {
		return video.CommandResult{ExitCode: 1, Stderr: err.Error()}, nil
	}
	return video.CommandResult{}, nil
}

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

func scriptText() string {
	words := make([]string, 0, 130)
	for i := 0; i < 126; i++ {
		words = append(words, fmt.Sprintf("word%d", i))
	}
	return strings.Join(words, " ") + " Available on Our Website."
}

func servePNG(t *testing.T) *httptest.Server {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
}

// TestPipeline_EndToEnd drives a single item through the real orchestrator,
// transcript client, speech client and assembler, with only the external
// processes and HTTP endpoints faked.
func TestPipeline_EndToEnd(t *testing.T) {
	script := scriptText()

	chatCalls := 0
	chatSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatCalls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": script}},
			},
		})
	}))
	defer chatSrv.Close()

	speechSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte{0xFF}, 4096))
	}))
	defer speechSrv.Close()

	imgSrv := servePNG(t)
	defer imgSrv.Close()

	mr := miniredis.RunT(t)
	log := logger.NewTestLogger(t)
	led := ledger.New(mr.Addr(), "", 0, time.Hour, log)
	defer led.Close()

	outDir := t.TempDir()
	face := basicfont.Face7x13

	synth := speech.NewSynthesizer(config.SpeechConfig{
		BaseURL: speechSrv.URL,
		Voice:   "alloy",
		Timeout: 5000,
	}, log)

	orch := generation.NewOrchestrator(generation.Settings{
		CanvasWidth:        1280,
		CanvasHeight:       720,
		SlideMaxWidthPx:    600,
		SlideMaxLines:      3,
		WorkDir:            t.TempDir(),
		OutputBaseDir:      outDir,
		StoreRootPrefix:    "root/",
		StoreOutputsFolder: "outputs",
	}, generation.Deps{
		Bundle: &assets.Bundle{Regular: face, Bold: face},
		Transcripts: transcript.NewGenerator(config.TextGenConfig{
			BaseURL:    chatSrv.URL,
			APIKey:     "test-key",
			Model:      "gpt-3.5-turbo",
			Timeout:    5000,
			MaxRetries: 1,
		}, log),
		Assembler:  video.NewAssembler(fakeRunner{}, synth, video.Options{FPS: 24}, log),
		Downloader: images.NewDownloader(5*time.Second, log),
		Recorder:   &ledgerRecorder{ledger: led},
		Logger:     log,
	})

	item := generation.Item{
		ListingID:   "77",
		ProductID:   "88",
		Title:       "Ceramic Mug",
		Description: "A sturdy mug for hot drinks",
		Images:      []generation.ImageSource{{URL: imgSrv.URL + "/mug.png"}},
	}

	ctx := context.Background()
	res, err := orch.Generate(ctx, item)
	require.NoError(t, err)

	assert.Equal(t, "77_88", res.Key)
	assert.False(t, res.CacheHit)
	require.Greater(t, res.SlideCount, 0)

	// Every narration clip probes at 10s, so the total is exact.
	assert.InDelta(t, 10.0*float64(res.SlideCount), res.Duration, 1e-9)

	blog, err := os.ReadFile(res.BlogPath)
	require.NoError(t, err)
	assert.Equal(t, script, string(blog))

	title, err := os.ReadFile(res.TitlePath)
	require.NoError(t, err)
	assert.Equal(t, "Ceramic Mug", string(title))

	videoData, err := os.ReadFile(res.VideoPath)
	require.NoError(t, err)
	assert.Equal(t, "encoded-mp4", string(videoData))

	entry, err := led.Lookup(ctx, "77_88")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, res.VideoPath, entry.VideoPath)
	assert.Len(t, entry.Fingerprint, 64)

	// A second run is a pure filesystem cache hit.
	second, err := orch.Generate(ctx, item)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, 1, chatCalls, "cache hit must not reach the text generator")
}

// TestPipeline_BatchEndToEnd runs a small catalog through the batch driver
// with the same stubbed externals. The incomplete row is skipped, the rest
// produce artifacts.
func TestPipeline_BatchEndToEnd(t *testing.T) {
	script := scriptText()

	chatSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": script}},
			},
		})
	}))
	defer chatSrv.Close()

	speechSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte{0xFF}, 4096))
	}))
	defer speechSrv.Close()

	imgSrv := servePNG(t)
	defer imgSrv.Close()

	log := logger.NewTestLogger(t)
	face := basicfont.Face7x13

	synth := speech.NewSynthesizer(config.SpeechConfig{
		BaseURL: speechSrv.URL,
		Timeout: 5000,
	}, log)

	orch := generation.NewOrchestrator(generation.Settings{
		CanvasWidth:     1280,
		CanvasHeight:    720,
		SlideMaxWidthPx: 600,
		SlideMaxLines:   3,
		WorkDir:         t.TempDir(),
		OutputBaseDir:   t.TempDir(),
	}, generation.Deps{
		Bundle: &assets.Bundle{Regular: face, Bold: face},
		Transcripts: transcript.NewGenerator(config.TextGenConfig{
			BaseURL:    chatSrv.URL,
			APIKey:     "test-key",
			Timeout:    5000,
			MaxRetries: 1,
		}, log),
		Assembler:  video.NewAssembler(fakeRunner{}, synth, video.Options{FPS: 24}, log),
		Downloader: images.NewDownloader(5*time.Second, log),
		Logger:     log,
	})

	csv := strings.Join([]string{
		"Listing Id,Product Id,Title,Description,Image URLs",
		fmt.Sprintf("1,2,Ceramic Mug,A sturdy mug,%s/mug.png", imgSrv.URL),
		"3,4,,missing title row,", // skipped
		fmt.Sprintf("5,6,Oak Shelf,A wall-mounted shelf,%s/shelf.png", imgSrv.URL),
	}, "\n")

	rows, err := batch.ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)

	driver := batch.NewDriver(orch, 3, log)
	summary, err := driver.Run(context.Background(), rows, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Failed)
	require.Len(t, summary.Results, 2)

	for _, res := range summary.Results {
		blog, err := os.ReadFile(res.BlogPath)
		require.NoError(t, err)
		assert.Equal(t, script, string(blog))
	}
}
