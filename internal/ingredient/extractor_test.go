package ingredient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/SWMChefTory/ai-recipe-summary/internal/apperr"
	"github.com/SWMChefTory/ai-recipe-summary/internal/llm"
)

// sourceLLM answers the written-text and transcript extraction calls with
// different ingredient lists, keyed off the prompt wording.
type sourceLLM struct {
	written    []any
	captions   []any
	writtenErr error
	captionErr error
	calls      int
}

func (f *sourceLLM) Invoke(_ context.Context, req llm.Request) (map[string]any, error) {
	f.calls++
	if strings.Contains(req.Prompt, "Transcript:") {
		if f.captionErr != nil {
			return nil, f.captionErr
		}
		return map[string]any{"ingredients": f.captions}, nil
	}
	if f.writtenErr != nil {
		return nil, f.writtenErr
	}
	return map[string]any{"ingredients": f.written}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ing(name, amount, unit string) map[string]any {
	return map[string]any{"name": name, "amount": amount, "unit": unit}
}

func TestExtractPrefersWrittenList(t *testing.T) {
	client := &sourceLLM{
		written:  []any{ing("돼지고기", "300", "g"), ing("고추장", "2", "큰술")},
		captions: []any{ing("돼지고기", "한 근", ""), ing("대파", "", "")},
	}
	ext := NewExtractor(client, testLogger())

	got, err := ext.Extract(context.Background(), "transcript", "description", []string{"pinned recipe"}, "ko")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if client.calls != 2 {
		t.Errorf("model calls = %d, want 2", client.calls)
	}

	want := []Ingredient{
		{Name: "돼지고기", Amount: "300", Unit: "g"},
		{Name: "고추장", Amount: "2", Unit: "큰술"},
		{Name: "대파"},
	}
	if len(got) != len(want) {
		t.Fatalf("ingredients = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ingredients[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestExtractSkipsWrittenCallWithoutText(t *testing.T) {
	client := &sourceLLM{captions: []any{ing("두부", "1", "모")}}
	ext := NewExtractor(client, testLogger())

	got, err := ext.Extract(context.Background(), "transcript", "", nil, "ko")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if client.calls != 1 {
		t.Errorf("model calls = %d, want 1", client.calls)
	}
	if len(got) != 1 || got[0].Name != "두부" {
		t.Errorf("ingredients = %+v", got)
	}
}

func TestExtractSurvivesOneFailedSource(t *testing.T) {
	client := &sourceLLM{
		writtenErr: errors.New("model unavailable"),
		captions:   []any{ing("두부", "1", "모")},
	}
	ext := NewExtractor(client, testLogger())

	got, err := ext.Extract(context.Background(), "transcript", "description", nil, "ko")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 1 || got[0].Name != "두부" {
		t.Errorf("ingredients = %+v", got)
	}
}

func TestExtractFailsWhenBothSourcesFail(t *testing.T) {
	client := &sourceLLM{
		writtenErr: errors.New("model unavailable"),
		captionErr: errors.New("model unavailable"),
	}
	ext := NewExtractor(client, testLogger())

	_, err := ext.Extract(context.Background(), "transcript", "description", nil, "ko")
	if !errors.Is(err, apperr.ErrIngredientExtractFailed) {
		t.Errorf("err = %v, want ErrIngredientExtractFailed", err)
	}
}

func TestExtractFailsOnEmptyResult(t *testing.T) {
	client := &sourceLLM{}
	ext := NewExtractor(client, testLogger())

	_, err := ext.Extract(context.Background(), "transcript", "description", nil, "ko")
	if !errors.Is(err, apperr.ErrIngredientExtractFailed) {
		t.Errorf("err = %v, want ErrIngredientExtractFailed", err)
	}
}

func TestMergeFillsBlankFields(t *testing.T) {
	primary := []Ingredient{{Name: "Soy Sauce", Amount: "2"}}
	secondary := []Ingredient{{Name: "soy sauce", Amount: "3", Unit: "tbsp"}}

	merged := Merge(primary, secondary)
	if len(merged) != 1 {
		t.Fatalf("merged = %+v", merged)
	}
	if merged[0].Amount != "2" || merged[0].Unit != "tbsp" {
		t.Errorf("merged[0] = %+v, want amount 2 unit tbsp", merged[0])
	}
}
