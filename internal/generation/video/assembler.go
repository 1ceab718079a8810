// Package video assembles the narrated slideshow: one narration clip and one
// still frame per slide, concatenated in slide order and muxed into an
// H.264/AAC mp4.
package video

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "ecomlisting-ai/internal/common/errors"
	"ecomlisting-ai/internal/common/logger"
	"ecomlisting-ai/internal/generation/slides"
)

// SpeechSynthesizer produces mp3 narration for one slide's text.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Assembler drives ffmpeg/ffprobe through a CommandRunner.
type Assembler struct {
	runner           CommandRunner
	synth            SpeechSynthesizer
	ffmpegPath       string
	ffprobePath      string
	fps              int
	minNarrationSize int
	logger           logger.Logger
}

type Options struct {
	FFmpegPath       string
	FFprobePath      string
	FPS              int
	MinNarrationSize int
}

func NewAssembler(runner CommandRunner, synth SpeechSynthesizer, opts Options, log logger.Logger) *Assembler {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = "ffprobe"
	}
	if opts.FPS == 0 {
		opts.FPS = 24
	}
	if opts.MinNarrationSize == 0 {
		opts.MinNarrationSize = 1024
	}
	return &Assembler{
		runner:           runner,
		synth:            synth,
		ffmpegPath:       opts.FFmpegPath,
		ffprobePath:      opts.FFprobePath,
		fps:              opts.FPS,
		minNarrationSize: opts.MinNarrationSize,
		logger: log.WithFields(map[string]interface{}{
			"component": "assembler",
		}),
	}
}

// Assemble synthesizes narration per slide, pairs each slide with its frame,
// and encodes baseName.mp4 under workDir. It returns the output path and the
// total duration in seconds, which equals the sum of the narration durations.
func (a *Assembler) Assemble(ctx context.Context, workDir, baseName string, slideSet []slides.Slide, frameImages []image.Image) (string, float64, error) {
	if len(slideSet) == 0 {
		return "", 0, apperrors.NewInputInvalidError("no slides to assemble")
	}
	if len(frameImages) != len(slideSet) {
		return "", 0, apperrors.NewEncodeFailedError(
			fmt.Errorf("%d frames for %d slides", len(frameImages), len(slideSet)))
	}

	var frameList, audioList strings.Builder
	var totalDuration float64

	for i, slide := range slideSet {
		audio, err := a.synth.Synthesize(ctx, slide.Text())
		if err != nil {
			return "", 0, err
		}
		if len(audio) < a.minNarrationSize {
			return "", 0, apperrors.NewSpeechFailedError(
				fmt.Sprintf("slide %d narration is %d bytes, below the %d byte floor",
					i, len(audio), a.minNarrationSize))
		}

		audioName := fmt.Sprintf("%s_slide_%d.mp3", baseName, i+1)
		audioPath := filepath.Join(workDir, audioName)
		if err := os.WriteFile(audioPath, audio, 0o644); err != nil {
			return "", 0, apperrors.NewEncodeFailedError(fmt.Errorf("write narration: %w", err))
		}

		duration, err := a.probeDuration(ctx, audioPath)
		if err != nil {
			return "", 0, err
		}
		if duration <= 0 {
			return "", 0, apperrors.NewSpeechFailedError(
				fmt.Sprintf("slide %d narration has no measurable duration", i))
		}

		frameName := fmt.Sprintf("frame_%d.png", i)
		framePath := filepath.Join(workDir, frameName)
		if err := writePNG(framePath, frameImages[i]); err != nil {
			return "", 0, apperrors.NewEncodeFailedError(fmt.Errorf("write frame: %w", err))
		}

		fmt.Fprintf(&frameList, "file '%s'\nduration %.6f\n", frameName, duration)
		fmt.Fprintf(&audioList, "file '%s'\n", audioName)
		totalDuration += duration

		a.logger.Debug("slide clip prepared", map[string]interface{}{
			"slide":    i,
			"duration": duration,
		})
	}

	// The concat demuxer ignores the duration of the final entry unless the
	// last file is repeated.
	fmt.Fprintf(&frameList, "file 'frame_%d.png'\n", len(slideSet)-1)

	framesListPath := filepath.Join(workDir, "frames.txt")
	audioListPath := filepath.Join(workDir, "audio.txt")
	if err := os.WriteFile(framesListPath, []byte(frameList.String()), 0o644); err != nil {
		return "", 0, apperrors.NewEncodeFailedError(fmt.Errorf("write frame list: %w", err))
	}
	if err := os.WriteFile(audioListPath, []byte(audioList.String()), 0o644); err != nil {
		return "", 0, apperrors.NewEncodeFailedError(fmt.Errorf("write audio list: %w", err))
	}

	videoPath := filepath.Join(workDir, baseName+".mp4")
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-f", "concat", "-safe", "0", "-i", framesListPath,
		"-f", "concat", "-safe", "0", "-i", audioListPath,
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(a.fps),
		"-c:a", "aac",
		"-shortest",
		videoPath,
	}

	result, err := a.runner.Run(ctx, a.ffmpegPath, args...)
	if err != nil {
		return "", 0, apperrors.NewEncodeFailedError(fmt.Errorf("ffmpeg: %w", err))
	}
	if result.ExitCode != 0 {
		return "", 0, apperrors.NewEncodeFailedError(
			fmt.Errorf("ffmpeg exit %d: %s", result.ExitCode, tail(result.Stderr, 400)))
	}

	a.logger.Info("video encoded", map[string]interface{}{
		"path":     videoPath,
		"slides":   len(slideSet),
		"duration": totalDuration,
	})

	return videoPath, totalDuration, nil
}

// probeDuration asks ffprobe for the container duration in seconds.
func (a *Assembler) probeDuration(ctx context.Context, path string) (float64, error) {
	result, err := a.runner.Run(ctx, a.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, apperrors.NewSpeechFailedError(fmt.Sprintf("ffprobe: %s", err))
	}
	if result.ExitCode != 0 {
		return 0, apperrors.NewSpeechFailedError(
			fmt.Sprintf("ffprobe exit %d: %s", result.ExitCode, tail(result.Stderr, 400)))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(result.Stdout), 64)
	if err != nil {
		return 0, apperrors.NewSpeechFailedError(
			fmt.Sprintf("ffprobe output %q is not a duration", strings.TrimSpace(result.Stdout)))
	}
	return duration, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
