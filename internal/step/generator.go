package step

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/SWMChefTory/ai-recipe-summary/internal/apperr"
	"github.com/SWMChefTory/ai-recipe-summary/internal/llm"
	"github.com/SWMChefTory/ai-recipe-summary/internal/prompt"
)

const stepSystemPrompt = "You must call the provided tool only. Do not produce free-form text."

const summarizePromptTemplate = `The JSON below is a window of timed captions from a cooking video, in language "{{ lang_code }}".
Summarize only the cooking instructions in this window into step groups and call emit_steps.
Keep each group's start at the timestamp where its first instruction begins.

Captions:
{{ captions }}`

const mergePromptTemplate = `The JSON below is a flat list of step groups produced from overlapping caption windows of one cooking video, in language "{{ lang_code }}".
Adjacent windows overlap, so some steps are duplicated. Deduplicate repeated instructions, order groups by start time, and call emit_steps with one coherent sequence of step groups with non-decreasing start times.

Step groups:
{{ steps }}`

const videoPromptTemplate = `Watch the attached cooking video and extract its cooking instructions as step groups, in language "{{ lang_code }}".
Use "HH:MM:SS" strings for every start field. Call emit_steps.`

var stepFunction = llm.FunctionSchema{
	Name:        "emit_steps",
	Description: "Report the cooking step groups.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"steps": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"subtitle": {"type": "string"},
						"start": {"type": "number"},
						"descriptions": {
							"type": "array",
							"items": {
								"type": "object",
								"properties": {
									"text": {"type": "string"},
									"start": {"type": "number"}
								},
								"required": ["text", "start"]
							}
						}
					},
					"required": ["subtitle", "start", "descriptions"]
				}
			}
		},
		"required": ["steps"]
	}`),
}

var videoStepFunction = llm.FunctionSchema{
	Name:        "emit_steps",
	Description: "Report the cooking step groups with HH:MM:SS start times.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"steps": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"subtitle": {"type": "string"},
						"start": {"type": "string"},
						"descriptions": {
							"type": "array",
							"items": {
								"type": "object",
								"properties": {
									"text": {"type": "string"},
									"start": {"type": "string"}
								},
								"required": ["text", "start"]
							}
						}
					},
					"required": ["subtitle", "start", "descriptions"]
				}
			}
		},
		"required": ["steps"]
	}`),
}

// Generator issues the summarize and merge model calls that turn caption
// windows into step groups.
type Generator struct {
	llm       llm.Client
	maxTokens int
	logger    *slog.Logger
}

func NewGenerator(client llm.Client, logger *slog.Logger) *Generator {
	return &Generator{llm: client, maxTokens: 16000, logger: logger}
}

// Summarize produces the step groups for one caption window. Model failures
// are not fatal here: the merge pass can still work with the remaining
// windows, so errors come back as an empty group list.
func (g *Generator) Summarize(ctx context.Context, captionsJSON, langCode string) []Group {
	rendered := prompt.Render(summarizePromptTemplate, map[string]string{
		"lang_code": langCode,
		"captions":  captionsJSON,
	})
	groups, err := g.callForSteps(ctx, rendered, "", "")
	if err != nil {
		g.logger.Warn("chunk summarization failed", "error", err)
		return nil
	}
	return groups
}

// Merge runs the single global merge call over the flattened per-chunk
// groups. An empty or unusable result is a hard failure: there is no
// non-model fallback for merging.
func (g *Generator) Merge(ctx context.Context, stepsJSON, langCode string) ([]Group, error) {
	rendered := prompt.Render(mergePromptTemplate, map[string]string{
		"lang_code": langCode,
		"steps":     stepsJSON,
	})
	groups, err := g.callForSteps(ctx, rendered, "", "")
	if err != nil {
		return nil, apperr.ErrStepGenerateFailed.WithCause(err)
	}
	if len(groups) == 0 {
		return nil, apperr.ErrStepGenerateFailed
	}
	return groups, nil
}

// SummarizeVideo is the direct-from-video variant: one multimodal call over
// the uploaded file, timestamps returned as HH:MM:SS strings.
func (g *Generator) SummarizeVideo(ctx context.Context, fileURI, mimeType, langCode string) ([]Group, error) {
	rendered := prompt.Render(videoPromptTemplate, map[string]string{"lang_code": langCode})

	args, err := g.llm.Invoke(ctx, llm.Request{
		System:    stepSystemPrompt,
		Prompt:    rendered,
		FileURI:   fileURI,
		MIMEType:  mimeType,
		Function:  videoStepFunction,
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		return nil, apperr.ErrStepGenerateFailed.WithCause(err)
	}

	groups, err := decodeClockGroups(args)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, apperr.ErrStepGenerateFailed
	}
	return groups, nil
}

func (g *Generator) callForSteps(ctx context.Context, rendered, fileURI, mimeType string) ([]Group, error) {
	args, err := g.llm.Invoke(ctx, llm.Request{
		System:    stepSystemPrompt,
		Prompt:    rendered,
		FileURI:   fileURI,
		MIMEType:  mimeType,
		Function:  stepFunction,
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(args["steps"])
	if err != nil {
		return nil, fmt.Errorf("re-encode steps: %w", err)
	}
	var groups []Group
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	return groups, nil
}

// clockGroup mirrors Group with HH:MM:SS string timestamps, the shape the
// multimodal call returns.
type clockGroup struct {
	Subtitle     string `json:"subtitle"`
	Start        string `json:"start"`
	Descriptions []struct {
		Text  string `json:"text"`
		Start string `json:"start"`
	} `json:"descriptions"`
}

var clockTimeRe = regexp.MustCompile(`^(\d{1,2}):([0-5]\d):([0-5]\d)$`)

// parseClockTime converts a strict "HH:MM:SS" string to integer seconds.
// Anything else is a typed failure, never a best-effort guess.
func parseClockTime(s string) (int, error) {
	m := clockTimeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, apperr.ErrStepInvalidTimestamp.WithCause(fmt.Errorf("timestamp %q", s))
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	return h*3600 + min*60 + sec, nil
}

func decodeClockGroups(args map[string]any) ([]Group, error) {
	raw, err := json.Marshal(args["steps"])
	if err != nil {
		return nil, apperr.ErrStepGenerateFailed.WithCause(err)
	}
	var clockGroups []clockGroup
	if err := json.Unmarshal(raw, &clockGroups); err != nil {
		return nil, apperr.ErrStepGenerateFailed.WithCause(fmt.Errorf("decode steps: %w", err))
	}

	groups := make([]Group, 0, len(clockGroups))
	for _, cg := range clockGroups {
		start, err := parseClockTime(cg.Start)
		if err != nil {
			return nil, err
		}
		group := Group{Subtitle: cg.Subtitle, Start: float64(start)}
		for _, d := range cg.Descriptions {
			ds, err := parseClockTime(d.Start)
			if err != nil {
				return nil, err
			}
			group.Descriptions = append(group.Descriptions, Description{Text: d.Text, Start: float64(ds)})
		}
		groups = append(groups, group)
	}
	return groups, nil
}
