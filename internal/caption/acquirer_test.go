package caption

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/SWMChefTory/ai-recipe-summary/internal/apperr"
)

const fakeSRT = `1
00:00:01,000 --> 00:00:03,000
Slice the onion.

2
00:00:03,000 --> 00:00:05,000
Heat the pan.
`

type fakeSource struct {
	tracks       []Track
	listErr      error
	downloadText string
	downloadErr  error
	extractText  string
	extractErr   error

	downloadCalls int
	extractCalls  int
}

func (f *fakeSource) ListTracks(ctx context.Context, videoID string) ([]Track, error) {
	return f.tracks, f.listErr
}

func (f *fakeSource) Download(ctx context.Context, track Track) (string, error) {
	f.downloadCalls++
	return f.downloadText, f.downloadErr
}

func (f *fakeSource) ExtractFile(ctx context.Context, videoID string, track Track) (string, error) {
	f.extractCalls++
	return f.extractText, f.extractErr
}

type fakeTranscriber struct {
	segments []Segment
	lang     string
	err      error
	calls    int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, videoID, langHint string) ([]Segment, string, error) {
	f.calls++
	return f.segments, f.lang, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAcquire(t *testing.T) {
	t.Run("manual korean wins without touching later strategies", func(t *testing.T) {
		src := &fakeSource{
			tracks: []Track{
				{Language: "en", Origin: OriginAuto, URL: "http://auto-en"},
				{Language: "ko", Origin: OriginManual, URL: "http://manual-ko"},
				{Language: "en", Origin: OriginManual, URL: "http://manual-en"},
			},
			downloadText: fakeSRT,
		}
		stt := &fakeTranscriber{}
		a := NewAcquirer(src, stt, testLogger())

		result, err := a.Acquire(context.Background(), "vid")
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		if result.Origin != OriginManual || result.Language != "ko" {
			t.Errorf("got origin=%v lang=%v, want manual/ko", result.Origin, result.Language)
		}
		if len(result.Segments) != 2 {
			t.Errorf("segments = %d, want 2", len(result.Segments))
		}
		if src.extractCalls != 0 || stt.calls != 0 {
			t.Error("cheap win should not invoke later strategies")
		}
	})

	t.Run("translated tracks are excluded", func(t *testing.T) {
		src := &fakeSource{
			tracks: []Track{
				{Language: "ko", Origin: OriginManual, Translated: true},
				{Language: "en", Origin: OriginManual, URL: "http://manual-en"},
			},
			downloadText: fakeSRT,
		}
		a := NewAcquirer(src, nil, testLogger())

		result, err := a.Acquire(context.Background(), "vid")
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		if result.Language != "en" {
			t.Errorf("lang = %q, want en (translated ko skipped)", result.Language)
		}
	})

	t.Run("auto track used when no manual exists", func(t *testing.T) {
		src := &fakeSource{
			tracks:       []Track{{Language: "ko-orig", Origin: OriginAuto, URL: "http://auto"}},
			downloadText: fakeSRT,
		}
		a := NewAcquirer(src, nil, testLogger())

		result, err := a.Acquire(context.Background(), "vid")
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		if result.Origin != OriginAuto {
			t.Errorf("origin = %v, want auto", result.Origin)
		}
		if result.Language != "ko" {
			t.Errorf("lang = %q, want ko with -orig stripped", result.Language)
		}
	})

	t.Run("download failure falls back to extraction tool", func(t *testing.T) {
		src := &fakeSource{
			tracks:      []Track{{Language: "ko", Origin: OriginManual, URL: "http://x"}},
			downloadErr: errors.New("403"),
			extractText: fakeSRT,
		}
		a := NewAcquirer(src, nil, testLogger())

		result, err := a.Acquire(context.Background(), "vid")
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		if src.downloadCalls != 1 || src.extractCalls != 1 {
			t.Errorf("download=%d extract=%d, want 1/1", src.downloadCalls, src.extractCalls)
		}
		if len(result.Segments) == 0 {
			t.Error("no segments from extraction fallback")
		}
	})

	t.Run("both download paths failing is extract failure", func(t *testing.T) {
		src := &fakeSource{
			tracks:      []Track{{Language: "ko", Origin: OriginManual, URL: "http://x"}},
			downloadErr: errors.New("403"),
			extractErr:  errors.New("no file"),
		}
		a := NewAcquirer(src, nil, testLogger())

		_, err := a.Acquire(context.Background(), "vid")
		if !errors.Is(err, apperr.ErrCaptionExtractFailed) {
			t.Errorf("Acquire() error = %v, want ErrCaptionExtractFailed", err)
		}
	})

	t.Run("malformed subtitle is extract failure", func(t *testing.T) {
		src := &fakeSource{
			tracks:       []Track{{Language: "ko", Origin: OriginManual, URL: "http://x"}},
			downloadText: "1\n00:bad --> worse\ntext\n",
		}
		a := NewAcquirer(src, nil, testLogger())

		_, err := a.Acquire(context.Background(), "vid")
		if !errors.Is(err, apperr.ErrCaptionExtractFailed) {
			t.Errorf("Acquire() error = %v, want ErrCaptionExtractFailed", err)
		}
	})

	t.Run("no tracks uses transcriber", func(t *testing.T) {
		src := &fakeSource{}
		stt := &fakeTranscriber{
			segments: []Segment{{Start: 0, End: 2, Text: "boil water"}},
			lang:     "ko",
		}
		a := NewAcquirer(src, stt, testLogger())

		result, err := a.Acquire(context.Background(), "vid")
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		if stt.calls != 1 {
			t.Errorf("transcriber calls = %d, want 1", stt.calls)
		}
		if result.Origin != OriginSTT || result.Language != "ko" {
			t.Errorf("got origin=%v lang=%v", result.Origin, result.Language)
		}
	})

	t.Run("no tracks and no transcriber is not found", func(t *testing.T) {
		a := NewAcquirer(&fakeSource{}, nil, testLogger())
		_, err := a.Acquire(context.Background(), "vid")
		if !errors.Is(err, apperr.ErrCaptionNotFound) {
			t.Errorf("Acquire() error = %v, want ErrCaptionNotFound", err)
		}
	})
}

func TestIsTranslatedURL(t *testing.T) {
	if !isTranslatedURL("https://yt.example/api/timedtext?lang=en&tlang=ko") {
		t.Error("tlang URL should be detected as translated")
	}
	if isTranslatedURL("https://yt.example/api/timedtext?lang=ko") {
		t.Error("plain URL misdetected as translated")
	}
}
