package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// maxResponseBytes caps how much of an upstream body is read.
	maxResponseBytes = 1 << 20
	// maxErrorBodyBytes caps the upstream body kept on a StatusError.
	maxErrorBodyBytes = 2048
)

var (
	// ErrMissingAPIKey is returned when the hosted provider is configured without a credential.
	ErrMissingAPIKey = errors.New("inference api key is not set")
	// ErrEmptyReply is returned when the upstream payload has no output.text.
	ErrEmptyReply = errors.New("no output text in response")
)

// StatusError is a non-2xx answer from the inference endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// DecodeError wraps a response body that could not be parsed.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error unmarshaling response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// InferenceClient talks to the hosted language-model endpoint using a bearer token.
type InferenceClient struct {
	apiKey     string
	httpClient *http.Client
	url        string
	model      string
}

func NewInferenceClient(apiKey, url, model string, timeout time.Duration) (*InferenceClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	if url == "" {
		return nil, errors.New("inference endpoint url is not set")
	}

	return &InferenceClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		model:      model,
	}, nil
}

func (c *InferenceClient) GetModel() string {
	return c.model
}

func (c *InferenceClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := applyOptions(c.model, opts)

	request := inferenceRequest{
		Model: settings.model,
		Input: inferenceInput{Messages: messages},
	}

	if settings.temperature > 0 || settings.maxTokens > 0 {
		request.Parameters = &inferenceParameters{
			Temperature: settings.temperature,
			MaxTokens:   settings.maxTokens,
		}
	}

	text, err := c.makeRequest(ctx, request)
	if err != nil {
		return err
	}

	if callback != nil {
		return callback(text)
	}

	return nil
}

func (c *InferenceClient) makeRequest(ctx context.Context, request inferenceRequest) (string, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), maxErrorBodyBytes)}
	}

	var response inferenceResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", &DecodeError{Err: err}
	}

	if response.Output == nil || response.Output.Text == "" {
		return "", ErrEmptyReply
	}

	return response.Output.Text, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

// Hosted inference API types
type inferenceRequest struct {
	Model      string               `json:"model"`
	Input      inferenceInput       `json:"input"`
	Parameters *inferenceParameters `json:"parameters,omitempty"`
}

type inferenceInput struct {
	Messages []Message `json:"messages"`
}

type inferenceParameters struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

type inferenceResponse struct {
	Output    *inferenceOutput `json:"output"`
	RequestID string           `json:"request_id,omitempty"`
}

type inferenceOutput struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
}
