package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SWMChefTory/ai-recipe-summary/internal/apperr"
	"github.com/SWMChefTory/ai-recipe-summary/internal/caption"
	"github.com/SWMChefTory/ai-recipe-summary/internal/ingredient"
	"github.com/SWMChefTory/ai-recipe-summary/internal/language"
	"github.com/SWMChefTory/ai-recipe-summary/internal/metrics"
	"github.com/SWMChefTory/ai-recipe-summary/internal/step"
	"github.com/SWMChefTory/ai-recipe-summary/internal/verify"
	"github.com/SWMChefTory/ai-recipe-summary/internal/youtube"
)

// Service interfaces consumed by the handlers, satisfied by the concrete
// pipeline services and by test fakes.
type (
	CaptionExtractor interface {
		Extract(ctx context.Context, videoID string) (*caption.Result, error)
	}

	StepGenerator interface {
		Generate(ctx context.Context, segments []caption.Segment, langCode string) ([]step.Group, error)
		GenerateFromVideo(ctx context.Context, fileURI, mimeType, langCode string) ([]step.Group, error)
	}

	BriefingGenerator interface {
		Generate(ctx context.Context, videoID, langCode string) ([]string, error)
	}

	Verifier interface {
		Verify(ctx context.Context, videoURL, langCode string) (verify.FileRef, verify.Verdict, error)
	}

	IngredientExtractor interface {
		Extract(ctx context.Context, captions, description string, ownerComments []string, langCode string) ([]ingredient.Ingredient, error)
	}

	VideoMetaSource interface {
		VideoMeta(ctx context.Context, videoID string) (youtube.VideoMeta, error)
		OwnerComments(ctx context.Context, videoID, ownerChannelID string, limit int) ([]youtube.Comment, error)
	}
)

// App wires the pipeline services into the HTTP surface.
type App struct {
	Captions    CaptionExtractor
	Steps       StepGenerator
	Briefings   BriefingGenerator
	Verifier    Verifier
	Ingredients IngredientExtractor
	Videos      VideoMetaSource
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

type captionRequest struct {
	VideoID string `json:"video_id"`
}

type captionResponse struct {
	VideoID  string            `json:"video_id"`
	LangCode string            `json:"lang_code"`
	Origin   string            `json:"origin"`
	Captions []caption.Segment `json:"captions"`
}

func (app *App) ExtractCaptionsHandler(w http.ResponseWriter, r *http.Request) {
	var req captionRequest
	if !decodeBody(w, r, app.Logger, &req) {
		return
	}
	if strings.TrimSpace(req.VideoID) == "" {
		writeError(w, r, app.Logger, apperr.ErrBadRequest)
		return
	}

	result, err := app.Captions.Extract(r.Context(), req.VideoID)
	if err != nil {
		writeError(w, r, app.Logger, err)
		return
	}
	app.Metrics.IncCaptions(string(result.Origin))

	writeJSON(w, http.StatusOK, captionResponse{
		VideoID:  req.VideoID,
		LangCode: result.Language,
		Origin:   string(result.Origin),
		Captions: result.Segments,
	})
}

type stepRequest struct {
	VideoID  string            `json:"video_id"`
	LangCode string            `json:"lang_code"`
	Captions []caption.Segment `json:"captions"`
}

type stepResponse struct {
	VideoID string       `json:"video_id"`
	Steps   []step.Group `json:"steps"`
}

func (app *App) GenerateStepsHandler(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if !decodeBody(w, r, app.Logger, &req) {
		return
	}
	if len(req.Captions) == 0 {
		writeError(w, r, app.Logger, apperr.ErrStepChunkNotFound)
		return
	}

	groups, err := app.Steps.Generate(r.Context(), req.Captions, language.Normalize(req.LangCode))
	if err != nil {
		writeError(w, r, app.Logger, err)
		return
	}
	app.Metrics.IncSteps()

	writeJSON(w, http.StatusOK, stepResponse{VideoID: req.VideoID, Steps: groups})
}

type videoStepRequest struct {
	VideoID  string `json:"video_id"`
	LangCode string `json:"lang_code"`
	FileURI  string `json:"file_uri"`
	MIMEType string `json:"mime_type"`
}

func (app *App) GenerateVideoStepsHandler(w http.ResponseWriter, r *http.Request) {
	var req videoStepRequest
	if !decodeBody(w, r, app.Logger, &req) {
		return
	}
	if req.FileURI == "" {
		writeError(w, r, app.Logger, apperr.ErrBadRequest)
		return
	}

	groups, err := app.Steps.GenerateFromVideo(r.Context(), req.FileURI, req.MIMEType, language.Normalize(req.LangCode))
	if err != nil {
		writeError(w, r, app.Logger, err)
		return
	}
	app.Metrics.IncSteps()

	writeJSON(w, http.StatusOK, stepResponse{VideoID: req.VideoID, Steps: groups})
}

type briefingRequest struct {
	VideoID  string `json:"video_id"`
	LangCode string `json:"lang_code"`
}

type briefingResponse struct {
	VideoID   string   `json:"video_id"`
	Briefings []string `json:"briefings"`
}

func (app *App) GenerateBriefingsHandler(w http.ResponseWriter, r *http.Request) {
	var req briefingRequest
	if !decodeBody(w, r, app.Logger, &req) {
		return
	}
	if strings.TrimSpace(req.VideoID) == "" {
		writeError(w, r, app.Logger, apperr.ErrBadRequest)
		return
	}

	briefings, err := app.Briefings.Generate(r.Context(), req.VideoID, language.Normalize(req.LangCode))
	if err != nil {
		writeError(w, r, app.Logger, err)
		return
	}
	if len(briefings) > 0 {
		app.Metrics.IncBriefings()
	}
	if briefings == nil {
		briefings = []string{}
	}

	writeJSON(w, http.StatusOK, briefingResponse{VideoID: req.VideoID, Briefings: briefings})
}

type verifyRequest struct {
	VideoURL string `json:"video_url"`
	LangCode string `json:"lang_code"`
}

type verifyResponse struct {
	FileURI    string  `json:"file_uri"`
	FileName   string  `json:"file_name"`
	MIMEType   string  `json:"mime_type"`
	IsRecipe   bool    `json:"is_recipe"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

func (app *App) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decodeBody(w, r, app.Logger, &req) {
		return
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		writeError(w, r, app.Logger, apperr.ErrBadRequest)
		return
	}

	ref, verdict, err := app.Verifier.Verify(r.Context(), req.VideoURL, language.Normalize(req.LangCode))
	if err != nil {
		if errors.Is(err, apperr.ErrVerifyNotRecipe) {
			app.Metrics.IncVerifications("not_recipe")
		}
		writeError(w, r, app.Logger, err)
		return
	}
	app.Metrics.IncVerifications("recipe")

	writeJSON(w, http.StatusOK, verifyResponse{
		FileURI:    ref.FileURI,
		FileName:   ref.FileName,
		MIMEType:   ref.MIMEType,
		IsRecipe:   verdict.IsRecipe,
		Confidence: verdict.Confidence,
		Reason:     verdict.Reason,
	})
}

type ingredientRequest struct {
	VideoID  string            `json:"video_id"`
	LangCode string            `json:"lang_code"`
	Captions []caption.Segment `json:"captions"`
}

type ingredientResponse struct {
	VideoID     string                  `json:"video_id"`
	Ingredients []ingredient.Ingredient `json:"ingredients"`
}

func (app *App) ExtractIngredientsHandler(w http.ResponseWriter, r *http.Request) {
	var req ingredientRequest
	if !decodeBody(w, r, app.Logger, &req) {
		return
	}
	if strings.TrimSpace(req.VideoID) == "" || len(req.Captions) == 0 {
		writeError(w, r, app.Logger, apperr.ErrBadRequest)
		return
	}

	// Written metadata is optional enrichment; a metadata fetch failure
	// must not block transcript-based extraction.
	description := ""
	var ownerTexts []string
	if meta, err := app.Videos.VideoMeta(r.Context(), req.VideoID); err != nil {
		app.Logger.Warn("video metadata fetch failed", "video_id", req.VideoID, "error", err)
	} else {
		description = meta.Description
		owned, err := app.Videos.OwnerComments(r.Context(), req.VideoID, meta.OwnerChannelID, 5)
		if err != nil {
			app.Logger.Warn("owner comment fetch failed", "video_id", req.VideoID, "error", err)
		}
		for _, comment := range owned {
			ownerTexts = append(ownerTexts, comment.Text)
		}
	}

	ingredients, err := app.Ingredients.Extract(
		r.Context(),
		caption.JoinText(req.Captions),
		description,
		ownerTexts,
		language.Normalize(req.LangCode),
	)
	if err != nil {
		writeError(w, r, app.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ingredientResponse{VideoID: req.VideoID, Ingredients: ingredients})
}
