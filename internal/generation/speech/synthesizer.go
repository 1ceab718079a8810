// Package speech turns slide narration text into mp3 audio via an HTTP TTS
// endpoint.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ecomlisting-ai/internal/common/config"
	apperrors "ecomlisting-ai/internal/common/errors"
	"ecomlisting-ai/internal/common/logger"
)

// MinAudioSize is the smallest narration payload accepted. Anything below
// this is a corrupt TTS artifact and fatal for the item.
const MinAudioSize = 1024

type speechRequest struct {
	Input    string `json:"input"`
	Voice    string `json:"voice,omitempty"`
	Language string `json:"language,omitempty"`
	Format   string `json:"response_format"`
}

// Synthesizer calls the configured TTS endpoint.
type Synthesizer struct {
	cfg    config.SpeechConfig
	client *http.Client
	logger logger.Logger
}

func NewSynthesizer(cfg config.SpeechConfig, log logger.Logger) *Synthesizer {
	return &Synthesizer{
		cfg: cfg,
		// No client timeout, the per-call context bounds the request.
		client: &http.Client{},
		logger: log.WithFields(map[string]interface{}{
			"component": "speech",
		}),
	}
}

// Synthesize returns mp3 bytes for text. Errors, empty bodies and payloads
// below MinAudioSize all surface as SPEECH_FAILED.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, config.GetDuration(s.cfg.Timeout))
	defer cancel()

	body, _ := json.Marshal(speechRequest{
		Input:    text,
		Voice:    s.cfg.Voice,
		Language: s.cfg.Language,
		Format:   "mp3",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.BaseURL+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewSpeechFailedError(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewSpeechFailedError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewSpeechFailedError(fmt.Sprintf("status %d", resp.StatusCode))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewSpeechFailedError(fmt.Sprintf("read body: %s", err))
	}

	if len(audio) < MinAudioSize {
		return nil, apperrors.NewSpeechFailedError(
			fmt.Sprintf("narration audio is %d bytes, below the %d byte floor", len(audio), MinAudioSize))
	}

	s.logger.Debug("narration synthesized", map[string]interface{}{
		"bytes": len(audio),
	})

	return audio, nil
}
