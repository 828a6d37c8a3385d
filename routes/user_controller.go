package routes

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/quick-survey/app"
	"github.com/mbolis/quick-survey/auth"
	"github.com/mbolis/quick-survey/httpx"
)

func GetSubmissionById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submissionId, err := idParam(r, "id")
		if err != nil {
			httpx.Fail(w, "request.get_url_param.id", err)
			return
		}

		sub, err := app.Submissions.GetByID(r.Context(), submissionId)
		if err != nil {
			httpx.Fail(w, "get_submission", err)
			return
		}
		if sub == nil {
			httpx.LogNotFound(w, "get_submission", submissionId)
			return
		}

		caller, _ := auth.FromContext(r.Context())
		if err = auth.RequireOwnerOrAdmin(caller, sub.UserID); err != nil {
			httpx.Fail(w, "get_submission.access", err)
			return
		}
		render.JSON(w, r, sub)
	}
}

func GetMySubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := auth.FromContext(r.Context())

		subs, err := app.Submissions.GetAllForUser(r.Context(), caller.UserID)
		if err != nil {
			httpx.Fail(w, "get_my_submissions", err)
			return
		}
		render.JSON(w, r, map[string]any{"submissions": subs})
	}
}

func DeleteMySubmission(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submissionId, err := idParam(r, "submissionId")
		if err != nil {
			httpx.Fail(w, "request.get_url_param.submission_id", err)
			return
		}

		caller, _ := auth.FromContext(r.Context())
		if err = app.Submissions.DeleteOne(r.Context(), submissionId, caller.UserID); err != nil {
			httpx.Fail(w, "delete_my_submission", err)
			return
		}
		render.JSON(w, r, map[string]any{"message": "Submission deleted"})
	}
}
