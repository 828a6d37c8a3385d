package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/mbolis/quick-survey/app"
	"github.com/mbolis/quick-survey/apperr"
	"github.com/mbolis/quick-survey/log"
	"github.com/mbolis/quick-survey/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Logger, NoColor: true}),
		middleware.Recoverer,
	)

	root.Get("/health", Health)
	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// credential exchange and logout work without (or despite a stale) access token
	api.Post("/auth/register", Register(app))
	api.Post("/auth/login", Login(app))
	api.Post("/auth/refresh", Refresh(app))
	api.Post("/auth/role", Role(app))
	api.Post("/auth/logout", Logout(app))

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Identity(app.Tokens))

		// public
		r.Get("/surveys", ListSurveys(app))
		r.Get(`/surveys/{id:[0-9]+}`, GetSurvey(app))
		r.Post(`/surveys/{id:[0-9]+}/submit`, SubmitSurvey(app))
		r.Get("/submissions/{sessionId}", GetSubmissionBySession(app))

		r.Group(func(r chi.Router) {
			r.Use(middlewares.Authenticated)

			r.Get("/auth/me", Me(app))
			r.Delete("/auth/delete", DeleteAccount(app))

			r.Get(`/surveys/submissions/{id:[0-9]+}`, GetSubmissionById(app))
			r.Get("/my-submissions", GetMySubmissions(app))
			r.Delete(`/my-submissions/{submissionId:[0-9]+}`, DeleteMySubmission(app))
		})

		r.Group(func(r chi.Router) {
			r.Use(middlewares.Admin)

			r.Post("/surveys", CreateSurvey(app))
			r.Post(`/surveys/{id:[0-9]+}/questions`, AddQuestion(app))
			r.Post("/surveys/sample/create", CreateSampleSurvey(app))

			r.Get("/admin/all-submissions", GetAllSubmissions(app))
			r.Get("/user-submissions/{username}", GetUserSubmissionsByUsername(app))
		})
	})

	return api
}

func Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC(),
		"service":   "quick-survey",
	})
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validationf("invalid %s", name)
	}
	return id, nil
}
