package caption

import (
	"context"
	"log/slog"
)

// Service chains acquisition and the recipe relevance gate behind the
// caption-extraction operation the API exposes.
type Service struct {
	acquirer *Acquirer
	gate     *RecipeGate
	logger   *slog.Logger
}

func NewService(acquirer *Acquirer, gate *RecipeGate, logger *slog.Logger) *Service {
	return &Service{acquirer: acquirer, gate: gate, logger: logger}
}

// Extract acquires captions for a video and vets them through the relevance
// gate. The returned Result carries a bare two-letter language code.
func (s *Service) Extract(ctx context.Context, videoID string) (*Result, error) {
	result, err := s.acquirer.Acquire(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if err := s.gate.Validate(ctx, JoinText(result.Segments), result.Language); err != nil {
		return nil, err
	}

	s.logger.Info("captions extracted",
		"video_id", videoID,
		"segments", len(result.Segments),
		"lang", result.Language,
		"origin", result.Origin)
	return result, nil
}
