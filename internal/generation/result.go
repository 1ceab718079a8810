// internal/generation/result.go
package generation

import "fmt"

// State tracks an item's progress through the pipeline.
type State string

const (
	StateRequested       State = "Requested"
	StateInputsResolved  State = "InputsResolved"
	StateTranscriptReady State = "TranscriptReady"
	StateSlidesPlanned   State = "SlidesPlanned"
	StateRendering       State = "Rendering"
	StateEncoded         State = "Encoded"
	StatePersisted       State = "Persisted"
	StateFailed          State = "Failed"
)

// OutputMode selects which artifacts the caller surfaces. Generation and
// persistence always produce all three.
type OutputMode string

const (
	OutputVideo OutputMode = "video"
	OutputBlog  OutputMode = "blog"
	OutputBoth  OutputMode = "both"
)

func ParseOutputMode(s string) (OutputMode, error) {
	switch OutputMode(s) {
	case OutputVideo, OutputBlog, OutputBoth:
		return OutputMode(s), nil
	case "":
		return OutputBoth, nil
	default:
		return "", fmt.Errorf("unknown output mode %q (want video, blog or both)", s)
	}
}

// Result describes a completed item, whether freshly generated or served
// from the output cache.
type Result struct {
	Key        string
	OutputDir  string
	VideoPath  string
	BlogPath   string
	TitlePath  string
	SlideCount int
	Duration   float64
	CacheHit   bool
}

// Artifacts returns the paths surfaced for mode, video first.
func (r *Result) Artifacts(mode OutputMode) []string {
	switch mode {
	case OutputVideo:
		return []string{r.VideoPath}
	case OutputBlog:
		return []string{r.BlogPath, r.TitlePath}
	default:
		return []string{r.VideoPath, r.BlogPath, r.TitlePath}
	}
}
