package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/quick-survey/app"
	"github.com/mbolis/quick-survey/auth"
	"github.com/mbolis/quick-survey/httpx"
	"github.com/mbolis/quick-survey/log"
	"github.com/mbolis/quick-survey/model"
	"github.com/mbolis/quick-survey/submission"
)

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveys, err := app.Catalog.ListSurveys(r.Context())
		if err != nil {
			httpx.Fail(w, "get_surveys", err)
			return
		}
		render.JSON(w, r, surveys)
	}
}

func GetSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := idParam(r, "id")
		if err != nil {
			httpx.Fail(w, "request.get_url_param.id", err)
			return
		}

		survey, err := app.Catalog.GetSurveyWithQuestions(r.Context(), surveyId)
		if err != nil {
			httpx.Fail(w, "get_survey", err)
			return
		}
		if survey == nil {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}
		if survey.Questions == nil {
			survey.Questions = []model.Question{}
		}
		render.JSON(w, r, survey)
	}
}

type submitBody struct {
	Responses []model.Answer `json:"responses"`
	SessionID string         `json:"sessionId"`
}

// SubmitSurvey records the answers of an anonymous or authenticated
// respondent.
func SubmitSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := idParam(r, "id")
		if err != nil {
			httpx.Fail(w, "request.get_url_param.id", err)
			return
		}

		body := submitBody{}
		if err = render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		result, err := app.Submissions.Submit(r.Context(), submission.Request{
			SurveyID:  surveyId,
			Answers:   body.Responses,
			UserID:    auth.UserIDFrom(r.Context()),
			SessionID: body.SessionID,
		})
		if err != nil {
			httpx.Fail(w, "submit_survey", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message":      "Survey response submitted successfully",
			"sessionId":    result.SessionID,
			"submissionId": result.SubmissionID,
		})
	}
}

// GetSubmissionBySession is public: the session id is only known to the
// respondent who submitted it.
func GetSubmissionBySession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionId := chi.URLParam(r, "sessionId")

		sub, err := app.Submissions.GetBySession(r.Context(), sessionId)
		if err != nil {
			httpx.Fail(w, "get_submission_by_session", err)
			return
		}
		if sub == nil {
			httpx.LogNotFound(w, "get_submission_by_session", sessionId)
			return
		}
		render.JSON(w, r, sub)
	}
}
