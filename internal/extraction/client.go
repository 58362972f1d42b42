// Package extraction talks to the document-understanding model and turns
// its answer into raw labeled observations.
package extraction

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/jay270804/medical-claim-processing-server/internal/platform/metrics"
)

const (
	DefaultModel   = "gemini-2.0-flash"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
)

var ErrEmptyDocument = errors.New("document has no content")

// Document is the payload handed to the model.
type Document struct {
	Content  []byte
	MIMEType string
}

// Extractor returns the raw observations found in a document.
type Extractor interface {
	Extract(ctx context.Context, doc Document) ([]Observation, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds a single attempt; the retry policy bounds the run.
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Retry             RetryPolicy
}

// chatCompleter is the subset of *openai.Client used here.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client is an Extractor backed by an OpenAI-compatible chat completions
// endpoint (Gemini by default).
type Client struct {
	api     chatCompleter
	cfg     Config
	limiter *rate.Limiter
	retrier *Retrier
	metrics *metrics.Registry
	logger  zerolog.Logger
}

func NewClient(cfg Config, m *metrics.Registry, logger zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("extraction API key is required")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	} else {
		clientConfig.BaseURL = DefaultBaseURL
	}
	return newClient(openai.NewClientWithConfig(clientConfig), cfg, m, logger), nil
}

func newClient(api chatCompleter, cfg Config, m *metrics.Registry, logger zerolog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	logger = logger.With().Str("component", "extraction").Logger()
	retrier := NewRetrier(cfg.Retry, logger)
	retrier.onRetry = m.RecordRetry

	return &Client{
		api:     api,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		retrier: retrier,
		metrics: m,
		logger:  logger,
	}
}

// Extract sends the document to the model. Transient upstream failures are
// retried; an unusable answer yields an empty slice and a nil error.
func (c *Client) Extract(ctx context.Context, doc Document) ([]Observation, error) {
	if len(doc.Content) == 0 {
		return nil, ErrEmptyDocument
	}

	req := c.buildRequest(doc)
	var resp openai.ChatCompletionResponse
	start := time.Now()

	err := c.retrier.Do(ctx, "document extraction", func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		c.metrics.RecordAttempt()

		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
		r, err := c.api.CreateChatCompletion(callCtx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		reason := "failed"
		var upErr *UpstreamError
		if errors.As(err, &upErr) {
			reason = upErr.Reason()
		}
		c.metrics.RecordExtraction(time.Since(start), reason)
		c.logger.Error().Err(errors.Unwrap(err)).Str("reason", reason).Msg("extraction failed")
		return nil, err
	}
	c.metrics.RecordExtraction(time.Since(start), "")

	if len(resp.Choices) == 0 {
		c.logger.Warn().Msg("extraction response had no choices, continuing with empty observation set")
		return []Observation{}, nil
	}

	obs, perr := ParseResponse(resp.Choices[0].Message.Content)
	if perr != nil {
		c.logger.Warn().Err(perr).Msg("extraction response unusable, continuing with empty observation set")
	}
	c.logger.Debug().Int("observations", len(obs)).Msg("extraction complete")
	return obs, nil
}

func (c *Client) buildRequest(doc Document) openai.ChatCompletionRequest {
	mimeType := doc.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(doc.Content)

	return openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: Instruction},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		Temperature: 0.1,
		TopP:        0.8,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
}
