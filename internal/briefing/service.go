package briefing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SWMChefTory/ai-recipe-summary/internal/apperr"
	"github.com/SWMChefTory/ai-recipe-summary/internal/llm"
	"github.com/SWMChefTory/ai-recipe-summary/internal/prompt"
	"github.com/SWMChefTory/ai-recipe-summary/internal/youtube"
)

const (
	// Videos with fewer comments than this get no briefing at all.
	minCommentCount = 20
	// Below this count a single relevance page is enough.
	smallThreshold = 100
	// Hard cap on comments pulled from the API for one video.
	poolLimit = 500
	// Hard cap on comments handed to the relevance filter call.
	filterCap = 200
	// Fewer relevant comments than this and the briefing is skipped.
	minRelevant = 8
	// Sentence bounds on the synthesized briefing.
	maxBriefings = 4
	minBriefings = 2

	stageTimeout = 45 * time.Second
	pageSize     = 100
)

const filterPromptTemplate = `The JSON below is a numbered list of viewer comments on a cooking video, in language "{{ lang_code }}".
Pick the comments that say something useful about cooking the dish: substitutions, corrections, tips, results of actually making it. Ignore praise, jokes and off-topic chatter.
Call emit_relevant with the indices of the useful comments.

Comments:
{{ comments }}`

const synthesizePromptTemplate = `The JSON below is a list of useful viewer comments on a cooking video, in language "{{ lang_code }}".
Write a short briefing for someone about to cook this dish: concrete tips, substitutions and pitfalls the comments agree on. Each sentence must stand alone. Write in language "{{ lang_code }}".
Call emit_briefings with the sentences.

Comments:
{{ comments }}`

var filterFunction = llm.FunctionSchema{
	Name:        "emit_relevant",
	Description: "Report the indices of the useful comments.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"indices": {"type": "array", "items": {"type": "integer"}}
		},
		"required": ["indices"]
	}`),
}

var synthesizeFunction = llm.FunctionSchema{
	Name:        "emit_briefings",
	Description: "Report the briefing sentences.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"briefings": {"type": "array", "items": {"type": "string"}}
		},
		"required": ["briefings"]
	}`),
}

// CommentSource is the slice of the YouTube client the pipeline reads from.
type CommentSource interface {
	VideoMeta(ctx context.Context, videoID string) (youtube.VideoMeta, error)
	FetchPage(ctx context.Context, videoID, order, pageToken string, maxResults int64) (youtube.Page, error)
}

// Service turns a video's comment section into a short cooking briefing.
// The briefing is best-effort enrichment: thin comment sections and slow
// model stages produce an empty briefing, not an error.
type Service struct {
	source CommentSource
	llm    llm.Client
	logger *slog.Logger
}

func NewService(source CommentSource, client llm.Client, logger *slog.Logger) *Service {
	return &Service{source: source, llm: client, logger: logger}
}

// Generate produces briefing sentences for a video, or an empty slice when
// the comment section is too thin to be worth summarizing.
func (s *Service) Generate(ctx context.Context, videoID, langCode string) ([]string, error) {
	meta, err := s.source.VideoMeta(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if meta.CommentCount < minCommentCount {
		s.logger.Info("skipping briefing, too few comments", "video_id", videoID, "count", meta.CommentCount)
		return nil, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, stageTimeout)
	pool, err := s.collect(fetchCtx, videoID, meta.CommentCount)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("comment fetch timed out", "video_id", videoID)
			return nil, nil
		}
		return nil, err
	}
	if len(pool) < minRelevant {
		return nil, nil
	}

	relevant, err := s.filter(ctx, pool, langCode)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("comment filter timed out", "video_id", videoID)
			return nil, nil
		}
		return nil, apperr.ErrBriefingFilterFailed.WithCause(err)
	}
	if len(relevant) < minRelevant {
		s.logger.Info("skipping briefing, too few relevant comments", "video_id", videoID, "relevant", len(relevant))
		return nil, nil
	}

	briefings, err := s.synthesize(ctx, relevant, langCode)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("briefing synthesis timed out", "video_id", videoID)
			return nil, nil
		}
		return nil, apperr.ErrBriefingGenerateFailed.WithCause(err)
	}
	if len(briefings) > maxBriefings {
		briefings = briefings[:maxBriefings]
	}
	if len(briefings) < minBriefings {
		return nil, nil
	}
	return briefings, nil
}

// collect builds the cleaned comment pool. Small sections take a single
// relevance page; larger ones merge relevance and recency pages so the pool
// sees both popular and fresh feedback.
func (s *Service) collect(ctx context.Context, videoID string, commentCount int64) ([]string, error) {
	orders := []string{"relevance"}
	if commentCount >= smallThreshold {
		orders = []string{"relevance", "time"}
	}

	seen := make(map[string]bool)
	var pool []string
	for _, order := range orders {
		pageToken := ""
		for len(pool) < poolLimit {
			page, err := s.source.FetchPage(ctx, videoID, order, pageToken, pageSize)
			if err != nil {
				return nil, err
			}
			for _, comment := range page.Comments {
				if seen[comment.ID] {
					continue
				}
				seen[comment.ID] = true
				cleaned := CleanText(comment.Text)
				if !Usable(cleaned) {
					continue
				}
				pool = append(pool, cleaned)
				if len(pool) == poolLimit {
					break
				}
			}
			if page.NextPageToken == "" || len(orders) == 1 {
				break
			}
			pageToken = page.NextPageToken
		}
	}
	return pool, nil
}

func (s *Service) filter(ctx context.Context, pool []string, langCode string) ([]string, error) {
	if len(pool) > filterCap {
		pool = pool[:filterCap]
	}

	numbered := make([]map[string]any, len(pool))
	for i, text := range pool {
		numbered[i] = map[string]any{"index": i, "text": text}
	}
	encoded, err := json.Marshal(numbered)
	if err != nil {
		return nil, err
	}

	stageCtx, cancel := context.WithTimeout(ctx, stageTimeout)
	defer cancel()

	args, err := s.llm.Invoke(stageCtx, llm.Request{
		System: "You must call the provided tool only.",
		Prompt: prompt.Render(filterPromptTemplate, map[string]string{
			"lang_code": langCode,
			"comments":  string(encoded),
		}),
		Function:  filterFunction,
		MaxTokens: 4000,
	})
	if err != nil {
		return nil, err
	}

	rawIndices, ok := args["indices"].([]any)
	if !ok {
		return nil, fmt.Errorf("indices missing from tool reply")
	}
	var relevant []string
	for _, raw := range rawIndices {
		idx, ok := raw.(float64)
		if !ok || idx < 0 || int(idx) >= len(pool) {
			continue
		}
		relevant = append(relevant, pool[int(idx)])
	}
	return relevant, nil
}

func (s *Service) synthesize(ctx context.Context, relevant []string, langCode string) ([]string, error) {
	encoded, err := json.Marshal(relevant)
	if err != nil {
		return nil, err
	}

	stageCtx, cancel := context.WithTimeout(ctx, stageTimeout)
	defer cancel()

	args, err := s.llm.Invoke(stageCtx, llm.Request{
		System: "You must call the provided tool only.",
		Prompt: prompt.Render(synthesizePromptTemplate, map[string]string{
			"lang_code": langCode,
			"comments":  string(encoded),
		}),
		Function:  synthesizeFunction,
		MaxTokens: 2000,
	})
	if err != nil {
		return nil, err
	}

	rawBriefings, ok := args["briefings"].([]any)
	if !ok {
		return nil, fmt.Errorf("briefings missing from tool reply")
	}
	var briefings []string
	for _, raw := range rawBriefings {
		if text, ok := raw.(string); ok && text != "" {
			briefings = append(briefings, text)
		}
	}
	return briefings, nil
}
