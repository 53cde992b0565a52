package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/SWMChefTory/ai-recipe-summary/internal/apperr"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint with
// forced tool calling. A fallback model, when configured, is tried exactly
// once after a rate-limit response from the primary model.
//
// The client holds no per-request state and is safe for concurrent use.
type OpenAIClient struct {
	apiKey        string
	apiURL        string
	model         string
	fallbackModel string
	httpClient    *http.Client
	recorder      CallRecorder
	logger        *slog.Logger
}

type OpenAIConfig struct {
	APIKey        string
	APIURL        string
	Model         string
	FallbackModel string
	Timeout       time.Duration
}

func NewOpenAIClient(cfg OpenAIConfig, recorder CallRecorder, logger *slog.Logger) *OpenAIClient {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second
	}
	return &OpenAIClient{
		apiKey:        cfg.APIKey,
		apiURL:        cfg.APIURL,
		model:         cfg.Model,
		fallbackModel: cfg.FallbackModel,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		recorder:      recorder,
		logger:        logger,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools"`
	ToolChoice  toolChoice    `json:"tool_choice"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string    `json:"role"`
	Content []msgPart `json:"content"`
}

type msgPart struct {
	Type    string    `json:"type"`
	Text    string    `json:"text,omitempty"`
	FileURI *filePart `json:"file_uri,omitempty"`
}

type filePart struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mime_type"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

type toolChoice struct {
	Type     string         `json:"type"`
	Function toolChoiceName `json:"function"`
}

type toolChoiceName struct {
	Name string `json:"name"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Invoke forces a call to req.Function and returns its decoded arguments.
func (c *OpenAIClient) Invoke(ctx context.Context, req Request) (map[string]any, error) {
	args, err := c.invokeModel(ctx, c.model, req)
	if err == nil || c.fallbackModel == "" || !isRateLimited(err) {
		return args, err
	}

	c.logger.Warn("primary model rate limited, trying fallback",
		"primary", c.model, "fallback", c.fallbackModel)
	return c.invokeModel(ctx, c.fallbackModel, req)
}

func isRateLimited(err error) bool {
	e := apperr.From(err)
	return e != nil && e.Code == apperr.ErrLLMRateLimited.Code
}

// invokeModel counts every attempt, fallback retries included.
func (c *OpenAIClient) invokeModel(ctx context.Context, model string, req Request) (map[string]any, error) {
	args, err := c.callModel(ctx, model, req)
	if c.recorder != nil {
		c.recorder.IncModelCalls()
		if err != nil {
			c.recorder.IncModelFailures()
		}
	}
	return args, err
}

func (c *OpenAIClient) callModel(ctx context.Context, model string, req Request) (map[string]any, error) {
	parts := []msgPart{{Type: "text", Text: req.Prompt}}
	if req.FileURI != "" {
		parts = append([]msgPart{{
			Type:    "file_uri",
			FileURI: &filePart{URI: req.FileURI, MIMEType: req.MIMEType},
		}}, parts...)
	}

	messages := []chatMessage{}
	if req.System != "" {
		messages = append(messages, chatMessage{
			Role:    "system",
			Content: []msgPart{{Type: "text", Text: req.System}},
		})
	}
	messages = append(messages, chatMessage{Role: "user", Content: parts})

	body := chatRequest{
		Model:    model,
		Messages: messages,
		Tools: []chatTool{{
			Type: "function",
			Function: toolFunction{
				Name:        req.Function.Name,
				Description: req.Function.Description,
				Parameters:  req.Function.Parameters,
			},
		}},
		ToolChoice:  toolChoice{Type: "function", Function: toolChoiceName{Name: req.Function.Name}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, apperr.ErrLLMInvokeFailed.WithCause(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, apperr.ErrLLMInvokeFailed.WithCause(err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperr.ErrLLMInvokeFailed.WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.ErrLLMInvokeFailed.WithCause(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperr.ErrLLMRateLimited.WithCause(fmt.Errorf("model %s: %s", model, truncate(respBody)))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.ErrLLMInvokeFailed.WithCause(
			fmt.Errorf("model %s: status=%d body=%s", model, resp.StatusCode, truncate(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, apperr.ErrLLMMalformed.WithCause(fmt.Errorf("decode response: %w", err))
	}
	if parsed.Error != nil {
		if parsed.Error.Type == "rate_limit_error" {
			return nil, apperr.ErrLLMRateLimited.WithCause(fmt.Errorf("model %s: %s", model, parsed.Error.Message))
		}
		return nil, apperr.ErrLLMInvokeFailed.WithCause(fmt.Errorf("model %s: %s", model, parsed.Error.Message))
	}

	if len(parsed.Choices) == 0 || len(parsed.Choices[0].Message.ToolCalls) == 0 {
		return nil, apperr.ErrLLMMalformed.WithCause(fmt.Errorf("model %s returned no tool call", model))
	}

	call := parsed.Choices[0].Message.ToolCalls[0].Function
	if call.Name != req.Function.Name {
		return nil, apperr.ErrLLMMalformed.WithCause(
			fmt.Errorf("model %s called %q, expected %q", model, call.Name, req.Function.Name))
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, apperr.ErrLLMMalformed.WithCause(fmt.Errorf("decode arguments: %w", err))
		}
	}
	return args, nil
}

func truncate(b []byte) string {
	const max = 500
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
