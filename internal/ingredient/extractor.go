package ingredient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SWMChefTory/ai-recipe-summary/internal/apperr"
	"github.com/SWMChefTory/ai-recipe-summary/internal/llm"
	"github.com/SWMChefTory/ai-recipe-summary/internal/prompt"
)

// Ingredient is one recipe ingredient. Amount and Unit stay empty when the
// source never states them.
type Ingredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

const captionPromptTemplate = `The text below is the spoken transcript of a cooking video, in language "{{ lang_code }}".
List every ingredient the cook actually uses, with amount and unit when stated. Keep ingredient names in language "{{ lang_code }}". Call emit_ingredients.

Transcript:
{{ text }}`

const descriptionPromptTemplate = `The text below is a cooking video's description followed by comments written by the video's own channel, in language "{{ lang_code }}".
If it contains an ingredient list, extract it with amounts and units. If it does not, call emit_ingredients with an empty list.

Text:
{{ text }}`

var ingredientFunction = llm.FunctionSchema{
	Name:        "emit_ingredients",
	Description: "Report the recipe ingredients.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"ingredients": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"name": {"type": "string"},
						"amount": {"type": "string"},
						"unit": {"type": "string"}
					},
					"required": ["name"]
				}
			}
		},
		"required": ["ingredients"]
	}`),
}

// Extractor pulls ingredient lists out of a video's transcript and its
// written metadata, preferring the written list when both exist.
type Extractor struct {
	llm    llm.Client
	logger *slog.Logger
}

func NewExtractor(client llm.Client, logger *slog.Logger) *Extractor {
	return &Extractor{llm: client, logger: logger}
}

// Extract combines both sources. The description-derived list wins on
// conflicts because creators post exact measurements there; the transcript
// fills in whatever the written list leaves out.
func (e *Extractor) Extract(ctx context.Context, captions, description string, ownerComments []string, langCode string) ([]Ingredient, error) {
	written := strings.TrimSpace(strings.Join(append([]string{description}, ownerComments...), "\n\n"))

	var fromWritten []Ingredient
	var writtenErr error
	if written != "" {
		fromWritten, writtenErr = e.extract(ctx, descriptionPromptTemplate, written, langCode)
		if writtenErr != nil {
			e.logger.Warn("description ingredient extraction failed", "error", writtenErr)
		}
	}

	fromCaptions, captionErr := e.extract(ctx, captionPromptTemplate, captions, langCode)
	if captionErr != nil {
		e.logger.Warn("caption ingredient extraction failed", "error", captionErr)
	}

	if writtenErr != nil && captionErr != nil {
		return nil, apperr.ErrIngredientExtractFailed.WithCause(captionErr)
	}

	merged := Merge(fromWritten, fromCaptions)
	if len(merged) == 0 {
		return nil, apperr.ErrIngredientExtractFailed
	}
	return merged, nil
}

func (e *Extractor) extract(ctx context.Context, template, text, langCode string) ([]Ingredient, error) {
	args, err := e.llm.Invoke(ctx, llm.Request{
		System: "You must call the provided tool only.",
		Prompt: prompt.Render(template, map[string]string{
			"lang_code": langCode,
			"text":      text,
		}),
		Function:  ingredientFunction,
		MaxTokens: 4000,
	})
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(args["ingredients"])
	if err != nil {
		return nil, fmt.Errorf("re-encode ingredients: %w", err)
	}
	var ingredients []Ingredient
	if err := json.Unmarshal(raw, &ingredients); err != nil {
		return nil, fmt.Errorf("decode ingredients: %w", err)
	}

	kept := ingredients[:0]
	for _, ing := range ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		if ing.Name != "" {
			kept = append(kept, ing)
		}
	}
	return kept, nil
}

// Merge overlays two ingredient lists. Primary entries come first and keep
// their values; a secondary entry with the same name only fills fields the
// primary left blank. Secondary-only entries are appended in order.
func Merge(primary, secondary []Ingredient) []Ingredient {
	merged := append([]Ingredient{}, primary...)
	byName := make(map[string]int, len(merged))
	for i, ing := range merged {
		byName[mergeKey(ing.Name)] = i
	}

	for _, ing := range secondary {
		key := mergeKey(ing.Name)
		i, exists := byName[key]
		if !exists {
			byName[key] = len(merged)
			merged = append(merged, ing)
			continue
		}
		if merged[i].Amount == "" {
			merged[i].Amount = ing.Amount
		}
		if merged[i].Unit == "" {
			merged[i].Unit = ing.Unit
		}
	}
	return merged
}

func mergeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
