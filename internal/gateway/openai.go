package gateway

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

// ErrUpstream wraps every failure of the completion service. Callers should
// show one generic message for it and never the wrapped detail.
var ErrUpstream = errors.New("completion service unavailable")

// Sampling parameters sent with every request.
const (
	temperature      = 0.9
	topP             = 1
	frequencyPenalty = 0.52
	presencePenalty  = 0.9
	sampleCount      = 1
	bestOf           = 2
)

// maxErrorBody caps how much of a failed response is read for logging.
const maxErrorBody = 4 << 10

type completionRequest struct {
	Prompt           string   `json:"prompt"`
	MaxTokens        int      `json:"max_tokens"`
	Temperature      float64  `json:"temperature"`
	TopP             float64  `json:"top_p"`
	FrequencyPenalty float64  `json:"frequency_penalty"`
	PresencePenalty  float64  `json:"presence_penalty"`
	N                int      `json:"n"`
	BestOf           int      `json:"best_of"`
	Stream           bool     `json:"stream"`
	Logprobs         *float64 `json:"logprobs"`
}

type completionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Answer is the normalized result of one completion call.
type Answer struct {
	Text         string
	Model        string
	FinishReason string
}

type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Complete asks the service to continue prompt using at most maxTokens
// tokens and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (*Answer, error) {
	body, err := json.Marshal(completionRequest{
		Prompt:           prompt,
		MaxTokens:        maxTokens,
		Temperature:      temperature,
		TopP:             topP,
		FrequencyPenalty: frequencyPenalty,
		PresencePenalty:  presencePenalty,
		N:                sampleCount,
		BestOf:           bestOf,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(detail)}
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("%w: response has no choices", ErrUpstream)
	}

	return &Answer{
		Text:         decoded.Choices[0].Text,
		Model:        decoded.Model,
		FinishReason: decoded.Choices[0].FinishReason,
	}, nil
}

// StatusError is returned for non-2xx responses. It matches ErrUpstream.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion service returned status %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstream
}
