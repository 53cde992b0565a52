package caption

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// SourceClient yields subtitle track metadata and raw subtitle text for a
// video. The production implementation shells out to yt-dlp; tests substitute
// fakes.
type SourceClient interface {
	// ListTracks returns every advertised subtitle track, manual and auto.
	ListTracks(ctx context.Context, videoID string) ([]Track, error)
	// Download fetches the subtitle text behind a track's direct URL.
	Download(ctx context.Context, track Track) (string, error)
	// ExtractFile asks the extraction tool to write the subtitle to a
	// temporary file and returns its contents. Fallback for when the direct
	// URL download fails.
	ExtractFile(ctx context.Context, videoID string, track Track) (string, error)
}

// YtdlpClient lists and downloads subtitle tracks via the yt-dlp binary.
type YtdlpClient struct {
	binPath     string
	cookiesPath string
	httpClient  *http.Client
	cmdTimeout  time.Duration
	logger      *slog.Logger
}

type YtdlpConfig struct {
	CookiesPath string
	CmdTimeout  time.Duration
}

func NewYtdlpClient(cfg YtdlpConfig, logger *slog.Logger) (*YtdlpClient, error) {
	binPath, err := exec.LookPath("yt-dlp")
	if err != nil {
		return nil, fmt.Errorf("yt-dlp not found in PATH: %w", err)
	}
	if cfg.CmdTimeout <= 0 {
		cfg.CmdTimeout = 60 * time.Second
	}
	return &YtdlpClient{
		binPath:     binPath,
		cookiesPath: cfg.CookiesPath,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		cmdTimeout:  cfg.CmdTimeout,
		logger:      logger,
	}, nil
}

// videoInfo is the slice of yt-dlp's -J output we care about.
type videoInfo struct {
	Subtitles         map[string][]trackInfo `json:"subtitles"`
	AutomaticCaptions map[string][]trackInfo `json:"automatic_captions"`
}

type trackInfo struct {
	Ext string `json:"ext"`
	URL string `json:"url"`
}

func (c *YtdlpClient) ListTracks(ctx context.Context, videoID string) ([]Track, error) {
	args := []string{"-J", "--skip-download", "--retries", "2"}
	if c.cookiesPath != "" {
		args = append(args, "--cookies", c.cookiesPath)
	}
	args = append(args, watchURL(videoID))

	cmdCtx, cancel := context.WithTimeout(ctx, c.cmdTimeout)
	defer cancel()

	out, err := exec.CommandContext(cmdCtx, c.binPath, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp info dump: %w", err)
	}

	var info videoInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("parse yt-dlp info: %w", err)
	}

	var tracks []Track
	tracks = appendTracks(tracks, info.Subtitles, OriginManual)
	tracks = appendTracks(tracks, info.AutomaticCaptions, OriginAuto)
	return tracks, nil
}

func appendTracks(tracks []Track, mapping map[string][]trackInfo, origin Origin) []Track {
	for lang, infos := range mapping {
		for _, ti := range infos {
			if ti.Ext != "srt" && ti.Ext != "vtt" {
				continue
			}
			tracks = append(tracks, Track{
				Language:   lang,
				Origin:     origin,
				URL:        ti.URL,
				Translated: isTranslatedURL(ti.URL),
				Format:     ti.Ext,
			})
		}
	}
	return tracks
}

// isTranslatedURL detects machine-translated subtitle variants by the tlang
// query parameter on the download URL.
func isTranslatedURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Query().Get("tlang") != ""
}

func (c *YtdlpClient) Download(ctx context.Context, track Track) (string, error) {
	if track.URL == "" {
		return "", fmt.Errorf("track has no download URL")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download subtitle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download subtitle: status=%d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read subtitle: %w", err)
	}
	return string(body), nil
}

func (c *YtdlpClient) ExtractFile(ctx context.Context, videoID string, track Track) (string, error) {
	tempDir, err := os.MkdirTemp("", "captions-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	args := []string{
		"--skip-download",
		"--sub-format", "srt",
		"--retries", "2",
		"-o", filepath.Join(tempDir, videoID+".%(ext)s"),
	}
	if c.cookiesPath != "" {
		args = append(args, "--cookies", c.cookiesPath)
	}
	switch track.Origin {
	case OriginManual:
		args = append(args, "--write-subs", "--sub-langs", track.Language)
	case OriginAuto:
		args = append(args, "--write-auto-subs", "--sub-langs", track.Language)
	}
	args = append(args, watchURL(videoID))

	cmdCtx, cancel := context.WithTimeout(ctx, c.cmdTimeout)
	defer cancel()

	c.logger.Info("extracting subtitle via yt-dlp",
		"video_id", videoID, "lang", track.Language, "origin", track.Origin)

	if out, err := exec.CommandContext(cmdCtx, c.binPath, args...).CombinedOutput(); err != nil {
		return "", fmt.Errorf("yt-dlp subtitle extraction: %w: %s", err, truncateBytes(out))
	}

	matches, err := filepath.Glob(filepath.Join(tempDir, "*.srt"))
	if err != nil || len(matches) == 0 {
		vtts, _ := filepath.Glob(filepath.Join(tempDir, "*.vtt"))
		matches = append(matches, vtts...)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("yt-dlp wrote no subtitle file")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		return "", fmt.Errorf("read subtitle file: %w", err)
	}
	return string(data), nil
}

func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
}

func truncateBytes(b []byte) string {
	const max = 300
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
