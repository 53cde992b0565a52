package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/SWMChefTory/ai-recipe-summary/internal/logger"
	"github.com/SWMChefTory/ai-recipe-summary/internal/metrics"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(logger.RequestLogger(app.Logger))
	r.Use(metrics.RequestMiddleware(app.Metrics))
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)
	r.Handle("/metrics", app.Metrics.Handler())

	r.Post("/captions", app.ExtractCaptionsHandler)
	r.Post("/steps", app.GenerateStepsHandler)
	r.Post("/steps/video", app.GenerateVideoStepsHandler)
	r.Post("/briefings", app.GenerateBriefingsHandler)
	r.Post("/verify", app.VerifyHandler)
	r.Post("/ingredients", app.ExtractIngredientsHandler)

	return r
}
