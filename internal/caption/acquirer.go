package caption

import (
	"context"
	"log/slog"

	"github.com/SWMChefTory/ai-recipe-summary/internal/apperr"
	"github.com/SWMChefTory/ai-recipe-summary/internal/language"
)

// Transcriber is the speech-to-text fallback used when a video advertises no
// subtitle track at all. Returns normalized segments and the detected
// language code.
type Transcriber interface {
	Transcribe(ctx context.Context, videoID, langHint string) ([]Segment, string, error)
}

// preferredLanguages is the fixed track preference order. Korean first, then
// English; machine-translated tracks are always excluded regardless of
// language.
var preferredLanguages = []string{"ko", "en"}

// Acquirer walks an ordered list of caption-acquisition strategies until one
// succeeds:
//
//  1. manual subtitle track in preferred language order
//  2. auto-generated subtitle track in the same order
//  3. (per track) direct URL download, then extraction-tool fallback
//  4. speech-to-text transcription when no track exists
//
// Strategies run strictly sequentially: each is more expensive than the last
// and a cheap win short-circuits the rest. The Acquirer itself never retries;
// endpoint-level retry belongs to the remote call policy.
type Acquirer struct {
	source      SourceClient
	transcriber Transcriber // optional
	logger      *slog.Logger
}

func NewAcquirer(source SourceClient, transcriber Transcriber, logger *slog.Logger) *Acquirer {
	return &Acquirer{source: source, transcriber: transcriber, logger: logger}
}

// Acquire produces the normalized caption sequence and bare language code for
// a video, or a typed failure: apperr.ErrCaptionNotFound when no track or
// transcript exists, apperr.ErrCaptionExtractFailed when every acquisition
// path failed.
func (a *Acquirer) Acquire(ctx context.Context, videoID string) (*Result, error) {
	tracks, err := a.source.ListTracks(ctx, videoID)
	if err != nil {
		return nil, apperr.ErrCaptionExtractFailed.WithCause(err)
	}

	track, found := pickTrack(tracks)
	if !found {
		return a.transcribeFallback(ctx, videoID)
	}

	a.logger.Info("caption track selected",
		"video_id", videoID, "lang", track.Language, "origin", track.Origin)

	raw := a.fetchRaw(ctx, videoID, track)
	if raw == "" {
		return nil, apperr.ErrCaptionExtractFailed
	}

	segments, err := Parse(raw)
	if err != nil {
		return nil, apperr.ErrCaptionExtractFailed.WithCause(err)
	}

	return &Result{
		Segments: segments,
		Language: language.Normalize(track.Language),
		Origin:   track.Origin,
	}, nil
}

// pickTrack applies the strategy order: manual before auto, preferred
// languages in order, machine-translated variants never.
func pickTrack(tracks []Track) (Track, bool) {
	for _, origin := range []Origin{OriginManual, OriginAuto} {
		for _, lang := range preferredLanguages {
			for _, track := range tracks {
				if track.Origin != origin || track.Translated {
					continue
				}
				if language.Normalize(track.Language) == lang {
					return track, true
				}
			}
		}
	}
	return Track{}, false
}

// fetchRaw tries the cheap direct download first, then the extraction tool.
func (a *Acquirer) fetchRaw(ctx context.Context, videoID string, track Track) string {
	raw, err := a.source.Download(ctx, track)
	if err == nil && raw != "" {
		return raw
	}
	if err != nil {
		a.logger.Warn("subtitle download failed, falling back to extraction tool",
			"video_id", videoID, "error", err)
	}

	raw, err = a.source.ExtractFile(ctx, videoID, track)
	if err != nil {
		a.logger.Error("subtitle extraction failed",
			"video_id", videoID, "error", err)
		return ""
	}
	return raw
}

func (a *Acquirer) transcribeFallback(ctx context.Context, videoID string) (*Result, error) {
	if a.transcriber == nil {
		return nil, apperr.ErrCaptionNotFound
	}

	a.logger.Info("no caption track, falling back to speech-to-text", "video_id", videoID)

	segments, lang, err := a.transcriber.Transcribe(ctx, videoID, language.DefaultCode)
	if err != nil {
		return nil, apperr.ErrCaptionExtractFailed.WithCause(err)
	}
	if len(segments) == 0 {
		return nil, apperr.ErrCaptionNotFound
	}

	return &Result{
		Segments: Normalize(segments),
		Language: language.Normalize(lang),
		Origin:   OriginSTT,
	}, nil
}
