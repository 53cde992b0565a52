package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestWhisperClientTranscribe(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "audio.mp3")
	if err := os.WriteFile(audioPath, []byte("fake audio bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("parses verbose segments", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("multipart parse: %v", err)
			}
			if got := r.FormValue("model"); got != "whisper-1" {
				t.Errorf("model = %q", got)
			}
			if got := r.FormValue("language"); got != "ko" {
				t.Errorf("language hint = %q", got)
			}
			w.Write([]byte(`{
				"language": "korean",
				"segments": [
					{"start": 0.0, "end": 2.4, "text": "물을 끓입니다"},
					{"start": 2.4, "end": 5.1, "text": "면을 넣어요"}
				]
			}`))
		}))
		defer srv.Close()

		c := NewWhisperClient(WhisperConfig{APIURL: srv.URL})
		segments, lang, err := c.Transcribe(context.Background(), audioPath, "ko")
		if err != nil {
			t.Fatalf("Transcribe() error = %v", err)
		}
		if len(segments) != 2 {
			t.Fatalf("segments = %d, want 2", len(segments))
		}
		if segments[1].Start != 2.4 || segments[1].End != 5.1 {
			t.Errorf("segments[1] = %+v", segments[1])
		}
		if lang != "ko" {
			t.Errorf("lang = %q, want ko (normalized from 'korean')", lang)
		}
	})

	t.Run("api error surfaces", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"file too large"}}`))
		}))
		defer srv.Close()

		c := NewWhisperClient(WhisperConfig{APIURL: srv.URL})
		if _, _, err := c.Transcribe(context.Background(), audioPath, ""); err == nil {
			t.Error("Transcribe() should fail on 400")
		}
	})
}
