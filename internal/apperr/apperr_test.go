package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorMatching(t *testing.T) {
	t.Run("WithCause matches sentinel", func(t *testing.T) {
		cause := fmt.Errorf("connect refused")
		err := ErrCaptionExtractFailed.WithCause(cause)

		if !errors.Is(err, ErrCaptionExtractFailed) {
			t.Error("wrapped error should match its sentinel")
		}
		if !errors.Is(err, cause) {
			t.Error("wrapped error should expose its cause")
		}
	})

	t.Run("distinct codes do not match", func(t *testing.T) {
		if errors.Is(ErrCaptionNotFound, ErrCaptionExtractFailed) {
			t.Error("different codes must not compare equal")
		}
	})

	t.Run("wrapping through fmt.Errorf", func(t *testing.T) {
		err := fmt.Errorf("acquire: %w", ErrCaptionNotFound)
		got := From(err)
		if got == nil || got.Code != "CAPTION_001" {
			t.Errorf("From() = %v, want CAPTION_001", got)
		}
	})
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrCaptionNotFound, http.StatusNotFound},
		{"not a recipe", ErrVerifyNotRecipe, http.StatusBadRequest},
		{"upstream", ErrUpstreamFailed.WithCause(errors.New("boom")), http.StatusBadGateway},
		{"unknown error", errors.New("panic elsewhere"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.err); got != tt.want {
				t.Errorf("StatusOf() = %d, want %d", got, tt.want)
			}
		})
	}
}
