// Package transcribe implements the speech-to-text caption fallback: audio is
// pulled from the video with a ladder of decreasing-quality extraction
// strategies, then sent to a transcription API.
package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	maxVideoDuration = 3600 // seconds; longer videos are not transcribed
	maxAudioBytes    = 25 * 1024 * 1024

	compressedSampleRate = "16000"
	compressedBitrate    = "64k"
)

// AudioExtractor downloads a video's audio track via yt-dlp, trying four
// option sets in decreasing quality order before giving up. Files larger than
// the API limit get one ffmpeg compression pass.
type AudioExtractor struct {
	ytdlpPath  string
	ffmpegPath string
	cmdTimeout time.Duration
	logger     *slog.Logger
}

func NewAudioExtractor(logger *slog.Logger) (*AudioExtractor, error) {
	ytdlpPath, err := exec.LookPath("yt-dlp")
	if err != nil {
		return nil, fmt.Errorf("yt-dlp not found in PATH: %w", err)
	}
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return &AudioExtractor{
		ytdlpPath:  ytdlpPath,
		ffmpegPath: ffmpegPath,
		cmdTimeout: 120 * time.Second,
		logger:     logger,
	}, nil
}

// strategies returns the yt-dlp argument ladder. Earlier entries prefer
// quality; later entries trade quality for compatibility with videos that
// reject the default format selectors.
func strategies() [][]string {
	return [][]string{
		{"-f", "bestaudio[ext=m4a]/bestaudio", "--extract-audio", "--audio-format", "mp3", "--audio-quality", "5"},
		{"-f", "bestaudio/best", "--extract-audio", "--audio-format", "mp3", "--audio-quality", "7",
			"--user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"},
		{"-f", "worstaudio/worst", "--extract-audio", "--audio-format", "mp3"},
		{"--extract-audio", "--audio-format", "mp3"},
	}
}

// Extract downloads the audio track to a temporary file and returns its path.
// The caller owns the file and must remove it.
func (e *AudioExtractor) Extract(ctx context.Context, videoID string) (string, error) {
	tempDir, err := os.MkdirTemp("", "audio-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	url := "https://www.youtube.com/watch?v=" + videoID
	var lastErr error

	for i, extra := range strategies() {
		audioPath, err := e.tryStrategy(ctx, tempDir, url, videoID, extra)
		if err == nil {
			return audioPath, nil
		}
		lastErr = err
		e.logger.Warn("audio extraction strategy failed",
			"video_id", videoID, "strategy", i+1, "error", err)
	}

	os.RemoveAll(tempDir)
	return "", fmt.Errorf("all audio extraction strategies failed: %w", lastErr)
}

func (e *AudioExtractor) tryStrategy(ctx context.Context, tempDir, url, videoID string, extra []string) (string, error) {
	args := []string{
		"--no-playlist",
		"--max-downloads", "1",
		"--match-filter", fmt.Sprintf("duration <= %d", maxVideoDuration),
		"-o", filepath.Join(tempDir, videoID+".%(ext)s"),
	}
	args = append(args, extra...)
	args = append(args, url)

	cmdCtx, cancel := context.WithTimeout(ctx, e.cmdTimeout)
	defer cancel()

	if out, err := exec.CommandContext(cmdCtx, e.ytdlpPath, args...).CombinedOutput(); err != nil {
		// --max-downloads makes yt-dlp exit 101 after a successful download
		if exitErr, ok := err.(*exec.ExitError); !ok || exitErr.ExitCode() != 101 {
			return "", fmt.Errorf("yt-dlp: %w: %s", err, tail(out))
		}
	}

	audioPath := filepath.Join(tempDir, videoID+".mp3")
	info, err := os.Stat(audioPath)
	if err != nil {
		return "", fmt.Errorf("no audio file produced")
	}

	if info.Size() > maxAudioBytes {
		return e.compress(ctx, audioPath)
	}
	return audioPath, nil
}

// compress re-encodes to 16kHz mono at a low bitrate. If even that exceeds
// the size limit the extraction fails.
func (e *AudioExtractor) compress(ctx context.Context, audioPath string) (string, error) {
	compressedPath := audioPath[:len(audioPath)-len(".mp3")] + "_compressed.mp3"

	cmdCtx, cancel := context.WithTimeout(ctx, e.cmdTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, e.ffmpegPath,
		"-y", "-i", audioPath,
		"-ar", compressedSampleRate,
		"-ac", "1",
		"-b:a", compressedBitrate,
		compressedPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg compress: %w: %s", err, tail(out))
	}
	os.Remove(audioPath)

	info, err := os.Stat(compressedPath)
	if err != nil {
		return "", fmt.Errorf("compressed file missing: %w", err)
	}
	if info.Size() > maxAudioBytes {
		os.Remove(compressedPath)
		return "", fmt.Errorf("audio still exceeds %d bytes after compression", maxAudioBytes)
	}
	return compressedPath, nil
}

func tail(b []byte) string {
	const max = 300
	if len(b) <= max {
		return string(b)
	}
	return "..." + string(b[len(b)-max:])
}
