package briefing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/SWMChefTory/ai-recipe-summary/internal/llm"
	"github.com/SWMChefTory/ai-recipe-summary/internal/youtube"
)

type fakeSource struct {
	meta        youtube.VideoMeta
	metaErr     error
	pages       map[string][]youtube.Page
	pageIndex   map[string]int
	fetchCalls  int
	fetchErr    error
	sawDeadline bool
}

func (f *fakeSource) VideoMeta(context.Context, string) (youtube.VideoMeta, error) {
	return f.meta, f.metaErr
}

func (f *fakeSource) FetchPage(ctx context.Context, _, order, _ string, _ int64) (youtube.Page, error) {
	f.fetchCalls++
	if _, ok := ctx.Deadline(); ok {
		f.sawDeadline = true
	}
	if f.fetchErr != nil {
		return youtube.Page{}, f.fetchErr
	}
	if f.pageIndex == nil {
		f.pageIndex = make(map[string]int)
	}
	pages := f.pages[order]
	idx := f.pageIndex[order]
	if idx >= len(pages) {
		return youtube.Page{}, nil
	}
	f.pageIndex[order]++
	return pages[idx], nil
}

// stageLLM dispatches by tool name so one fake drives both model stages.
type stageLLM struct {
	filterIndices   []any
	filterErr       error
	briefings       []any
	synthesizeErr   error
	filterCalls     int
	synthesizeCalls int
}

func (f *stageLLM) Invoke(_ context.Context, req llm.Request) (map[string]any, error) {
	switch req.Function.Name {
	case "emit_relevant":
		f.filterCalls++
		if f.filterErr != nil {
			return nil, f.filterErr
		}
		return map[string]any{"indices": f.filterIndices}, nil
	case "emit_briefings":
		f.synthesizeCalls++
		if f.synthesizeErr != nil {
			return nil, f.synthesizeErr
		}
		return map[string]any{"briefings": f.briefings}, nil
	}
	return nil, fmt.Errorf("unexpected tool %q", req.Function.Name)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func usableComments(n int) []youtube.Comment {
	comments := make([]youtube.Comment, n)
	for i := range comments {
		comments[i] = youtube.Comment{
			ID:   fmt.Sprintf("c%03d", i),
			Text: fmt.Sprintf("comment %03d with a genuinely useful cooking tip", i),
		}
	}
	return comments
}

func indices(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func sentences(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = fmt.Sprintf("briefing sentence %d", i)
	}
	return out
}

func TestGenerateSkipsThinCommentSections(t *testing.T) {
	source := &fakeSource{meta: youtube.VideoMeta{CommentCount: 19}}
	client := &stageLLM{}
	svc := NewService(source, client, testLogger())

	briefings, err := svc.Generate(context.Background(), "vid", "ko")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if briefings != nil {
		t.Errorf("briefings = %v, want nil", briefings)
	}
	if source.fetchCalls != 0 {
		t.Errorf("fetch calls = %d, want 0", source.fetchCalls)
	}
}

func TestGenerateSmallSectionUsesOneRelevancePage(t *testing.T) {
	source := &fakeSource{
		meta: youtube.VideoMeta{CommentCount: 50},
		pages: map[string][]youtube.Page{
			"relevance": {{Comments: usableComments(30)}},
		},
	}
	client := &stageLLM{filterIndices: indices(10), briefings: sentences(3)}
	svc := NewService(source, client, testLogger())

	briefings, err := svc.Generate(context.Background(), "vid", "ko")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(briefings) != 3 {
		t.Errorf("briefings = %d, want 3", len(briefings))
	}
	if source.fetchCalls != 1 {
		t.Errorf("fetch calls = %d, want 1", source.fetchCalls)
	}
}

func TestGenerateLargeSectionMergesOrdersAndDeduplicates(t *testing.T) {
	popular := usableComments(40)
	// Recent pages repeat half the popular comments and add fresh ones.
	recent := append([]youtube.Comment{}, popular[20:]...)
	for i := range 20 {
		recent = append(recent, youtube.Comment{
			ID:   fmt.Sprintf("r%03d", i),
			Text: fmt.Sprintf("recent comment %03d with another useful tip", i),
		})
	}
	source := &fakeSource{
		meta: youtube.VideoMeta{CommentCount: 400},
		pages: map[string][]youtube.Page{
			"relevance": {{Comments: popular}},
			"time":      {{Comments: recent}},
		},
	}
	client := &stageLLM{filterIndices: indices(12), briefings: sentences(4)}
	svc := NewService(source, client, testLogger())

	if _, err := svc.Generate(context.Background(), "vid", "ko"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if source.fetchCalls != 2 {
		t.Errorf("fetch calls = %d, want 2", source.fetchCalls)
	}
}

func TestGenerateSkipsWhenTooFewRelevant(t *testing.T) {
	source := &fakeSource{
		meta: youtube.VideoMeta{CommentCount: 50},
		pages: map[string][]youtube.Page{
			"relevance": {{Comments: usableComments(30)}},
		},
	}
	client := &stageLLM{filterIndices: indices(7)}
	svc := NewService(source, client, testLogger())

	briefings, err := svc.Generate(context.Background(), "vid", "ko")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if briefings != nil {
		t.Errorf("briefings = %v, want nil", briefings)
	}
	if client.synthesizeCalls != 0 {
		t.Errorf("synthesize calls = %d, want 0", client.synthesizeCalls)
	}
}

func TestGenerateClampsBriefings(t *testing.T) {
	source := &fakeSource{
		meta: youtube.VideoMeta{CommentCount: 50},
		pages: map[string][]youtube.Page{
			"relevance": {{Comments: usableComments(30)}},
		},
	}
	client := &stageLLM{filterIndices: indices(10), briefings: sentences(6)}
	svc := NewService(source, client, testLogger())

	briefings, err := svc.Generate(context.Background(), "vid", "ko")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(briefings) != 4 {
		t.Errorf("briefings = %d, want 4", len(briefings))
	}
}

func TestGenerateDropsSingleSentenceBriefing(t *testing.T) {
	source := &fakeSource{
		meta: youtube.VideoMeta{CommentCount: 50},
		pages: map[string][]youtube.Page{
			"relevance": {{Comments: usableComments(30)}},
		},
	}
	client := &stageLLM{filterIndices: indices(10), briefings: sentences(1)}
	svc := NewService(source, client, testLogger())

	briefings, err := svc.Generate(context.Background(), "vid", "ko")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if briefings != nil {
		t.Errorf("briefings = %v, want nil", briefings)
	}
}

func TestGenerateBoundsCommentFetch(t *testing.T) {
	source := &fakeSource{
		meta: youtube.VideoMeta{CommentCount: 50},
		pages: map[string][]youtube.Page{
			"relevance": {{Comments: usableComments(30)}},
		},
	}
	client := &stageLLM{filterIndices: indices(10), briefings: sentences(3)}
	svc := NewService(source, client, testLogger())

	if _, err := svc.Generate(context.Background(), "vid", "ko"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !source.sawDeadline {
		t.Error("comment fetch ran without a deadline")
	}
}

func TestGenerateTreatsFetchTimeoutAsEmpty(t *testing.T) {
	source := &fakeSource{
		meta:     youtube.VideoMeta{CommentCount: 50},
		fetchErr: context.DeadlineExceeded,
	}
	svc := NewService(source, &stageLLM{}, testLogger())

	briefings, err := svc.Generate(context.Background(), "vid", "ko")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if briefings != nil {
		t.Errorf("briefings = %v, want nil", briefings)
	}
}

func TestGenerateTreatsStageTimeoutAsEmpty(t *testing.T) {
	source := &fakeSource{
		meta: youtube.VideoMeta{CommentCount: 50},
		pages: map[string][]youtube.Page{
			"relevance": {{Comments: usableComments(30)}},
		},
	}
	client := &stageLLM{filterErr: context.DeadlineExceeded}
	svc := NewService(source, client, testLogger())

	briefings, err := svc.Generate(context.Background(), "vid", "ko")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if briefings != nil {
		t.Errorf("briefings = %v, want nil", briefings)
	}
}
