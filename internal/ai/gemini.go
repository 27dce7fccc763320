// Package ai answers free-form questions with Gemini.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/pauljones0/syncbot/internal/logger"
	"google.golang.org/api/option"
)

const (
	DefaultModel = "gemini-2.5-flash-lite"
	maxAttempts  = 3
)

var ErrEmptyResponse = errors.New("empty response from model")

// generator is the part of *genai.GenerativeModel the client uses.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client wraps the Gemini API.
type Client struct {
	client  *genai.Client
	model   generator
	backoff time.Duration
}

// Answer is the structured response requested from the model.
type Answer struct {
	Text     string `json:"answer"`
	Declined bool   `json:"declined"`
}

// NewClient initializes the Gemini client. An empty modelName selects DefaultModel.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(AskSystemInstruction)}}
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"answer":   {Type: genai.TypeString},
			"declined": {Type: genai.TypeBoolean},
		},
		Required: []string{"answer"},
	}

	return &Client{client: client, model: model, backoff: time.Second}, nil
}

// Close closes the underlying client connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Ask sends a sanitized question to the model. Failed generations are
// retried with a linear backoff.
func (c *Client) Ask(ctx context.Context, question string) (*Answer, error) {
	question = Sanitize(question)
	if question == "" {
		return nil, errors.New("question is empty")
	}
	prompt := fmt.Sprintf(AskPromptTemplate, question)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
		if err == nil {
			var answer Answer
			if err := parseJSONResponse(ctx, resp, &answer); err != nil {
				return nil, err
			}
			return &answer, nil
		}
		lastErr = err
		logger.Warn(ctx, "Gemini generation failed", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
	return nil, fmt.Errorf("gemini generation failed: %w", lastErr)
}

// parseJSONResponse unmarshals the first text part of the response into v.
func parseJSONResponse(ctx context.Context, resp *genai.GenerateContentResponse, v any) error {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ErrEmptyResponse
	}

	part := resp.Candidates[0].Content.Parts[0]
	text, ok := part.(genai.Text)
	if !ok {
		return fmt.Errorf("expected text part, got %T", part)
	}

	if err := json.Unmarshal([]byte(text), v); err != nil {
		logger.Error(ctx, "Failed to unmarshal model JSON", "body", string(text))
		return fmt.Errorf("JSON parse error: %w", err)
	}
	return nil
}
