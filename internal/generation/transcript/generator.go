// Package transcript turns a product title and description into a narration
// script via a chat-completions API.
package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ecomlisting-ai/internal/common/config"
	apperrors "ecomlisting-ai/internal/common/errors"
	"ecomlisting-ai/internal/common/logger"
)

const maxTokens = 500

// Generator calls the configured text-generation endpoint. For a given
// (title, description) pair the result is treated as a pure function of the
// inputs.
type Generator struct {
	cfg    config.TextGenConfig
	client *http.Client
	logger logger.Logger
}

func NewGenerator(cfg config.TextGenConfig, log logger.Logger) *Generator {
	return &Generator{
		cfg: cfg,
		// No client timeout, the per-call context bounds the request.
		client: &http.Client{},
		logger: log.WithFields(map[string]interface{}{
			"component": "transcript",
		}),
	}
}

// Generate produces the narration script. An empty or failed result is fatal
// for the item (TRANSCRIPT_FAILED).
func (g *Generator) Generate(ctx context.Context, title, description string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, config.GetDuration(g.cfg.Timeout))
	defer cancel()

	body, _ := json.Marshal(chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(title, description)},
		},
		MaxTokens: maxTokens,
	})

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", apperrors.NewTranscriptFailedError(ctx.Err())
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			g.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
		if err != nil {
			return "", apperrors.NewTranscriptFailedError(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if g.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
		}

		resp, lastErr = g.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return "", apperrors.NewTranscriptFailedError(ctx.Err())
		}
	}

	if lastErr != nil {
		return "", apperrors.NewTranscriptFailedError(lastErr)
	}
	if resp == nil {
		return "", apperrors.NewTranscriptFailedError(fmt.Errorf("no successful response after retries"))
	}
	defer resp.Body.Close()

	var apiResponse chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", apperrors.NewTranscriptFailedError(fmt.Errorf("decode error: %w", err))
	}

	if len(apiResponse.Choices) == 0 {
		return "", apperrors.NewTranscriptFailedError(fmt.Errorf("response carried no choices"))
	}

	script := strings.TrimSpace(apiResponse.Choices[0].Message.Content)
	if script == "" {
		return "", apperrors.NewTranscriptFailedError(fmt.Errorf("empty transcript"))
	}

	g.logger.Info("transcript generated", map[string]interface{}{
		"words": len(strings.Fields(script)),
	})

	return script, nil
}

func buildPrompt(title, description string) string {
	return fmt.Sprintf(
		"You are the world's best script writer for product videos. "+
			"Write a voiceover script in **130 to 140 words** for:\nTitle: %s\nDescription: %s\n"+
			"End with 'Available on Our Website.'"+
			"Do not format as a video script or include voiceover-style text. Write as a typical blog article.",
		title, description,
	)
}
