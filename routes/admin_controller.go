package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/quick-survey/app"
	"github.com/mbolis/quick-survey/catalog"
	"github.com/mbolis/quick-survey/httpx"
	"github.com/mbolis/quick-survey/log"
	"github.com/mbolis/quick-survey/model"
)

// surveyQuestionBody accepts the field spellings used by the survey
// builder form as well as the question endpoint.
type surveyQuestionBody struct {
	Text              string             `json:"text"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Type              model.QuestionType `json:"type"`
	QuestionType      model.QuestionType `json:"question_type"`
	QuestionTypeCamel model.QuestionType `json:"questionType"`
	Options           []string           `json:"options"`
	Required          bool               `json:"required"`
}

func (b surveyQuestionBody) toNewQuestion() model.NewQuestion {
	nq := model.NewQuestion{
		Title:       firstNonEmpty(b.Text, b.Title),
		Description: b.Description,
		Type:        model.QuestionType(firstNonEmpty(string(b.Type), string(b.QuestionType), string(b.QuestionTypeCamel))),
		Options:     b.Options,
		Required:    b.Required,
	}
	if nq.Type == "" {
		nq.Type = model.TypeText
	}
	return nq
}

type surveyBody struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Questions   []surveyQuestionBody `json:"questions"`
}

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := surveyBody{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		ns := catalog.NewSurvey{Title: body.Title, Description: body.Description}
		for _, q := range body.Questions {
			ns.Questions = append(ns.Questions, q.toNewQuestion())
		}

		survey, err := app.Catalog.CreateSurveyWithQuestions(r.Context(), ns)
		if err != nil {
			httpx.Fail(w, "create_survey", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, survey)
	}
}

func AddQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := idParam(r, "id")
		if err != nil {
			httpx.Fail(w, "request.get_url_param.id", err)
			return
		}

		nq := model.NewQuestion{}
		if err = render.DecodeJSON(r.Body, &nq); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		question, err := app.Catalog.AddQuestion(r.Context(), surveyId, nq)
		if err != nil {
			httpx.Fail(w, "add_question", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, question)
	}
}

func CreateSampleSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, err := app.Catalog.CreateSampleSurvey(r.Context())
		if err != nil {
			httpx.Fail(w, "create_sample_survey", err)
			return
		}

		log.Infof("sample survey created with id %d", survey.ID)
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message": "Sample survey created successfully",
			"survey":  survey,
		})
	}
}

func GetAllSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := app.Submissions.GetAll(r.Context())
		if err != nil {
			httpx.Fail(w, "get_all_submissions", err)
			return
		}
		render.JSON(w, r, subs)
	}
}

func GetUserSubmissionsByUsername(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")

		subs, err := app.Submissions.GetAllForUsername(r.Context(), username)
		if err != nil {
			httpx.Fail(w, "get_user_submissions", err)
			return
		}
		render.JSON(w, r, map[string]any{"submissions": subs})
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
