package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/SWMChefTory/ai-recipe-summary/internal/caption"
	"github.com/SWMChefTory/ai-recipe-summary/internal/language"
)

const (
	defaultWhisperURL   = "https://api.openai.com/v1/audio/transcriptions"
	defaultWhisperModel = "whisper-1"
)

// WhisperClient transcribes audio through an OpenAI-compatible transcription
// endpoint, requesting per-segment timestamps.
type WhisperClient struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client
}

type WhisperConfig struct {
	APIKey  string
	APIURL  string
	Model   string
	Timeout time.Duration
}

func NewWhisperClient(cfg WhisperConfig) *WhisperClient {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultWhisperURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultWhisperModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	return &WhisperClient{
		apiKey:     cfg.APIKey,
		apiURL:     cfg.APIURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type whisperResponse struct {
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *WhisperClient) Transcribe(ctx context.Context, audioPath, langHint string) ([]caption.Segment, string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("copy audio: %w", err)
	}
	writer.WriteField("model", c.model)
	writer.WriteField("response_format", "verbose_json")
	writer.WriteField("timestamp_granularities[]", "segment")
	if langHint != "" {
		writer.WriteField("language", langHint)
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, &buf)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("transcription: status=%d body=%s", resp.StatusCode, tail(body))
	}

	var parsed whisperResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, "", fmt.Errorf("decode transcription: %w", err)
	}
	if parsed.Error != nil {
		return nil, "", fmt.Errorf("transcription: %s", parsed.Error.Message)
	}

	segments := make([]caption.Segment, 0, len(parsed.Segments))
	for _, s := range parsed.Segments {
		segments = append(segments, caption.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}

	lang := language.Normalize(parsed.Language)
	return segments, lang, nil
}
