package step

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/SWMChefTory/ai-recipe-summary/internal/apperr"
	"github.com/SWMChefTory/ai-recipe-summary/internal/caption"
)

// DefaultConcurrency caps how many chunk summarization calls run at once.
const DefaultConcurrency = 2

// Config carries the chunking tunables. Zero values fall back to the
// package defaults.
type Config struct {
	ChunkSize   int
	Overlap     int
	Concurrency int
}

// Service turns timed captions into merged cooking step groups: chunk the
// captions, summarize each chunk concurrently, then merge the results in a
// single pass.
type Service struct {
	generator   *Generator
	chunkSize   int
	overlap     int
	concurrency int64
	logger      *slog.Logger
}

func NewService(generator *Generator, cfg Config, logger *slog.Logger) *Service {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Overlap <= 0 {
		cfg.Overlap = DefaultOverlap
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Service{
		generator:   generator,
		chunkSize:   cfg.ChunkSize,
		overlap:     cfg.Overlap,
		concurrency: int64(cfg.Concurrency),
		logger:      logger,
	}
}

// Generate produces the merged step groups for a full caption set.
func (s *Service) Generate(ctx context.Context, segments []caption.Segment, langCode string) ([]Group, error) {
	chunks := Chunk(segments, s.chunkSize, s.overlap)
	if len(chunks) == 0 {
		return nil, apperr.ErrStepChunkNotFound
	}

	perChunk := make([][]Group, len(chunks))
	sem := semaphore.NewWeighted(s.concurrency)
	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			encoded, err := json.Marshal(chunk)
			if err != nil {
				return fmt.Errorf("encode chunk %d: %w", i, err)
			}
			perChunk[i] = s.generator.Summarize(gctx, string(encoded), langCode)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.ErrStepGenerateFailed.WithCause(err)
	}

	var flattened []Group
	for _, groups := range perChunk {
		flattened = append(flattened, groups...)
	}
	if len(flattened) == 0 {
		return nil, apperr.ErrStepGenerateFailed
	}

	encoded, err := json.Marshal(flattened)
	if err != nil {
		return nil, apperr.ErrStepGenerateFailed.WithCause(err)
	}
	s.logger.Info("merging step groups", "chunks", len(chunks), "groups", len(flattened))
	return s.generator.Merge(ctx, string(encoded), langCode)
}

// GenerateFromVideo extracts step groups straight from an uploaded video
// file, skipping the caption pipeline entirely.
func (s *Service) GenerateFromVideo(ctx context.Context, fileURI, mimeType, langCode string) ([]Group, error) {
	return s.generator.SummarizeVideo(ctx, fileURI, mimeType, langCode)
}
