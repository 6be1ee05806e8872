package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mbolis/desirability-form/app"
	"github.com/mbolis/desirability-form/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(
		middleware.RequestID,
		middleware.RealIP,
		middlewares.Logger,
		middleware.Recoverer,
		middlewares.CORS(),
	)

	root.Post("/submit", SubmitForm(app))

	root.Get("/answers", ListAnswers(app))
	root.Get("/answers/summary", AnswersSummary(app))
	root.Get(`/answers/{id:^\d+$}`, GetAnswer(app))

	root.Route("/api/data", func(r chi.Router) {
		r.Get("/export", ExportData(app))
		r.Get("/powerbi", PowerBI(app))
	})

	root.Post("/init-db", InitDB(app))
	root.Get("/health", Health(app))

	root.Mount("/", serveStaticFiles(app.StaticDir))

	return root
}

func serveStaticFiles(dir string) http.Handler {
	return http.FileServer(http.Dir(dir))
}
