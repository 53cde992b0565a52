package transcribe

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/SWMChefTory/ai-recipe-summary/internal/caption"
)

// SpeechToTextClient converts an audio file into timed caption segments.
type SpeechToTextClient interface {
	Transcribe(ctx context.Context, audioPath, langHint string) ([]caption.Segment, string, error)
}

// Service wires audio extraction and speech-to-text into the caption
// acquirer's Transcriber contract.
type Service struct {
	extractor *AudioExtractor
	stt       SpeechToTextClient
	logger    *slog.Logger
}

func NewService(extractor *AudioExtractor, stt SpeechToTextClient, logger *slog.Logger) *Service {
	return &Service{extractor: extractor, stt: stt, logger: logger}
}

func (s *Service) Transcribe(ctx context.Context, videoID, langHint string) ([]caption.Segment, string, error) {
	audioPath, err := s.extractor.Extract(ctx, videoID)
	if err != nil {
		return nil, "", err
	}
	defer os.RemoveAll(filepath.Dir(audioPath))

	segments, lang, err := s.stt.Transcribe(ctx, audioPath, langHint)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("audio transcription complete",
		"video_id", videoID, "segments", len(segments), "lang", lang)
	return segments, lang, nil
}
