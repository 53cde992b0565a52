package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SWMChefTory/ai-recipe-summary/internal/api"
	"github.com/SWMChefTory/ai-recipe-summary/internal/apperr"
	"github.com/SWMChefTory/ai-recipe-summary/internal/briefing"
	"github.com/SWMChefTory/ai-recipe-summary/internal/caption"
	"github.com/SWMChefTory/ai-recipe-summary/internal/config"
	"github.com/SWMChefTory/ai-recipe-summary/internal/ingredient"
	"github.com/SWMChefTory/ai-recipe-summary/internal/llm"
	"github.com/SWMChefTory/ai-recipe-summary/internal/logger"
	"github.com/SWMChefTory/ai-recipe-summary/internal/metrics"
	"github.com/SWMChefTory/ai-recipe-summary/internal/remote"
	"github.com/SWMChefTory/ai-recipe-summary/internal/step"
	"github.com/SWMChefTory/ai-recipe-summary/internal/transcribe"
	"github.com/SWMChefTory/ai-recipe-summary/internal/verify"
	"github.com/SWMChefTory/ai-recipe-summary/internal/youtube"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	logg := logger.New(cfg.LogLevel, cfg.LogFormat)
	mets := metrics.New()

	model := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:        cfg.OpenAIAPIKey,
		APIURL:        cfg.OpenAIAPIURL,
		Model:         cfg.OpenAIModel,
		FallbackModel: cfg.OpenAIFallbackModel,
	}, mets, logg)

	source, err := caption.NewYtdlpClient(caption.YtdlpConfig{CookiesPath: cfg.CookiesPath}, logg)
	if err != nil {
		log.Fatal("Failed to initialize caption client: ", err)
	}

	// Speech-to-text is a fallback path; a missing ffmpeg install disables
	// it instead of blocking startup.
	var transcriber caption.Transcriber
	if extractor, err := transcribe.NewAudioExtractor(logg); err != nil {
		logg.Warn("transcription disabled", "error", err)
	} else {
		whisper := transcribe.NewWhisperClient(transcribe.WhisperConfig{
			APIKey: cfg.WhisperAPIKey,
			APIURL: cfg.WhisperAPIURL,
			Model:  cfg.WhisperModel,
		})
		transcriber = transcribe.NewService(extractor, whisper, logg)
	}

	acquirer := caption.NewAcquirer(source, transcriber, logg)
	gate := caption.NewRecipeGate(model, logg)
	captions := caption.NewService(acquirer, gate, logg)

	steps := step.NewService(step.NewGenerator(model, logg), step.Config{
		ChunkSize:   cfg.ChunkSize,
		Overlap:     cfg.ChunkOverlap,
		Concurrency: cfg.ChunkConcurrency,
	}, logg)

	videos, err := youtube.NewClient(cfg.YouTubeAPIKey)
	if err != nil {
		log.Fatal("Failed to initialize youtube client: ", err)
	}
	briefings := briefing.NewService(videos, model, logg)

	var verifier api.Verifier
	if len(cfg.RelayEndpoints) > 0 {
		policy, err := remote.NewPolicy(remote.Config{
			Endpoints:   cfg.RelayEndpoints,
			MaxAttempts: cfg.RelayMaxAttempts,
			BaseDelay:   cfg.RelayBackoffBase,
			MaxDelay:    cfg.RelayBackoffMax,
		}, logg)
		if err != nil {
			log.Fatal("Failed to initialize upload relay: ", err)
		}
		verifier = verify.NewService(verify.NewRemoteRelay(policy), model, logg)
	} else {
		logg.Warn("verification disabled, RELAY_ENDPOINTS not set")
		verifier = disabledVerifier{}
	}

	app := &api.App{
		Captions:    captions,
		Steps:       steps,
		Briefings:   briefings,
		Verifier:    verifier,
		Ingredients: ingredient.NewExtractor(model, logg),
		Videos:      videos,
		Metrics:     mets,
		Logger:      logg,
	}

	router := api.NewRouter(app)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		logg.Info("server starting", "port", cfg.Port, "model", cfg.OpenAIModel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("shutdown failed", "error", err)
	}
}

// disabledVerifier stands in when no upload relay endpoints are configured.
type disabledVerifier struct{}

func (disabledVerifier) Verify(context.Context, string, string) (verify.FileRef, verify.Verdict, error) {
	return verify.FileRef{}, verify.Verdict{}, apperr.ErrVerifyUpload.WithCause(errors.New("upload relay not configured"))
}
