package caption

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/SWMChefTory/ai-recipe-summary/internal/apperr"
	"github.com/SWMChefTory/ai-recipe-summary/internal/llm"
	"github.com/SWMChefTory/ai-recipe-summary/internal/prompt"
)

const gatePromptTemplate = `You are given the full caption text of a video in language "{{ lang_code }}".
Decide whether the video teaches how to prepare a dish (a cooking recipe).
Call emit_bit with bit=1 if it does, bit=0 if it does not.

Captions:
{{ captions }}`

var gateFunction = llm.FunctionSchema{
	Name:        "emit_bit",
	Description: "Report whether the captions describe a cooking recipe.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"bit": {"type": "integer", "enum": [0, 1]}
		},
		"required": ["bit"]
	}`),
}

// RecipeGate vets acquired captions with a single forced function call before
// the rest of the pipeline runs. Rejection and validation failure both
// short-circuit as typed errors; callers never proceed to step generation.
type RecipeGate struct {
	llm    llm.Client
	logger *slog.Logger
}

func NewRecipeGate(client llm.Client, logger *slog.Logger) *RecipeGate {
	return &RecipeGate{llm: client, logger: logger}
}

// Validate returns nil for recipes, apperr.ErrCaptionNotRecipe for
// non-recipes, and apperr.ErrCaptionValidateFailed when the model's answer is
// unusable.
func (g *RecipeGate) Validate(ctx context.Context, captionsText, langCode string) error {
	args, err := g.llm.Invoke(ctx, llm.Request{
		Prompt: prompt.Render(gatePromptTemplate, map[string]string{
			"lang_code": langCode,
			"captions":  captionsText,
		}),
		Function: gateFunction,
	})
	if err != nil {
		return apperr.ErrCaptionValidateFailed.WithCause(err)
	}

	bit, ok := args["bit"].(float64)
	if !ok {
		g.logger.Warn("recipe gate returned non-numeric flag", "args", args)
		return apperr.ErrCaptionValidateFailed
	}
	switch bit {
	case 1:
		return nil
	case 0:
		return apperr.ErrCaptionNotRecipe
	default:
		g.logger.Warn("recipe gate returned out-of-range flag", "bit", bit)
		return apperr.ErrCaptionValidateFailed
	}
}
