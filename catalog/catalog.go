// Package catalog holds surveys and their ordered question definitions.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mbolis/quick-survey/apperr"
	"github.com/mbolis/quick-survey/database"
	"github.com/mbolis/quick-survey/model"
)

type Catalog struct {
	db *sql.DB
}

func New(db *sql.DB) *Catalog {
	return &Catalog{db}
}

type NewSurvey struct {
	Title       string              `json:"title" validate:"required,max=255"`
	Description string              `json:"description"`
	Questions   []model.NewQuestion `json:"questions" validate:"dive"`
}

func (c *Catalog) CreateSurvey(ctx context.Context, title, description string) (*model.Survey, error) {
	return c.CreateSurveyWithQuestions(ctx, NewSurvey{Title: title, Description: description})
}

// CreateSurveyWithQuestions stores the survey and its questions in one
// transaction; question order follows the slice order.
func (c *Catalog) CreateSurveyWithQuestions(ctx context.Context, ns NewSurvey) (*model.Survey, error) {
	ns.Title = strings.TrimSpace(ns.Title)
	if err := model.Validate(ns); err != nil {
		return nil, err
	}

	survey := &model.Survey{
		Title:       ns.Title,
		Description: ns.Description,
		CreatedAt:   time.Now().UTC(),
	}
	err := database.WithTx(ctx, c.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO surveys (title, description, created_at) VALUES (?, ?, ?)
			RETURNING id`,
			survey.Title, survey.Description, survey.CreatedAt,
		).Scan(&survey.ID)
		if err != nil {
			return apperr.Store("db.insert_survey", err)
		}

		for i, nq := range ns.Questions {
			q, err := insertQuestion(ctx, tx, survey.ID, i, nq)
			if err != nil {
				return err
			}
			survey.Questions = append(survey.Questions, *q)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Store("db.insert_survey.commit", err)
	}
	return survey, nil
}

// ListSurveys returns every survey, newest first, without questions.
func (c *Catalog) ListSurveys(ctx context.Context) ([]model.Survey, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, title, description, created_at
		FROM surveys
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, apperr.Store("db.get_surveys", err)
	}
	defer rows.Close()

	surveys := []model.Survey{}
	for rows.Next() {
		s := model.Survey{}
		if err = rows.Scan(&s.ID, &s.Title, &s.Description, &s.CreatedAt); err != nil {
			return nil, apperr.Store("db.get_surveys.scan", err)
		}
		surveys = append(surveys, s)
	}
	return surveys, apperr.Store("db.get_surveys.rows", rows.Err())
}

// GetSurvey returns (nil, nil) if the survey does not exist.
func (c *Catalog) GetSurvey(ctx context.Context, id int64) (*model.Survey, error) {
	s := &model.Survey{}
	err := c.db.QueryRowContext(ctx, `
		SELECT id, title, description, created_at
		FROM surveys
		WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.Title, &s.Description, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store("db.get_survey", err)
	}
	return s, nil
}

// GetQuestions returns the survey's questions sorted by order index.
func (c *Catalog) GetQuestions(ctx context.Context, surveyID int64) ([]model.Question, error) {
	return getQuestions(ctx, c.db, surveyID)
}

func (c *Catalog) GetSurveyWithQuestions(ctx context.Context, id int64) (*model.Survey, error) {
	s, err := c.GetSurvey(ctx, id)
	if err != nil || s == nil {
		return s, err
	}
	s.Questions, err = c.GetQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// AddQuestion appends a question to a survey. Its order index is the
// number of questions the survey already has.
func (c *Catalog) AddQuestion(ctx context.Context, surveyID int64, nq model.NewQuestion) (*model.Question, error) {
	if err := model.Validate(nq); err != nil {
		return nil, err
	}

	var q *model.Question
	err := database.WithTx(ctx, c.db, func(tx *sql.Tx) error {
		var count int
		var exists bool
		err := tx.QueryRowContext(ctx, `
			SELECT
				EXISTS (SELECT 1 FROM surveys WHERE id = ?),
				(SELECT COUNT(*) FROM questions WHERE survey_id = ?)`,
			surveyID, surveyID,
		).Scan(&exists, &count)
		if err != nil {
			return apperr.Store("db.add_question.count", err)
		}
		if !exists {
			return apperr.NotFoundf("survey %d not found", surveyID)
		}

		q, err = insertQuestion(ctx, tx, surveyID, count, nq)
		return err
	})
	if err != nil {
		return nil, apperr.Store("db.add_question.commit", err)
	}
	return q, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func getQuestions(ctx context.Context, db queryer, surveyID int64) ([]model.Question, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, survey_id, title, description, question_type, options, required, order_index
		FROM questions
		WHERE survey_id = ?
		ORDER BY order_index ASC`,
		surveyID,
	)
	if err != nil {
		return nil, apperr.Store("db.get_questions", err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q := model.Question{}
		var typ string
		err = rows.Scan(&q.ID, &q.SurveyID, &q.Title, &q.Description, &typ, &q.Options, &q.Required, &q.OrderIndex)
		if err != nil {
			return nil, apperr.Store("db.get_questions.scan", err)
		}
		q.Type = model.QuestionType(typ)
		questions = append(questions, q)
	}
	return questions, apperr.Store("db.get_questions.rows", rows.Err())
}

func insertQuestion(ctx context.Context, tx *sql.Tx, surveyID int64, orderIndex int, nq model.NewQuestion) (*model.Question, error) {
	opts, err := normalizeOptions(nq)
	if err != nil {
		return nil, err
	}

	q := &model.Question{
		SurveyID:    surveyID,
		Title:       strings.TrimSpace(nq.Title),
		Description: nq.Description,
		Type:        nq.Type,
		Options:     opts,
		Required:    nq.Required,
		OrderIndex:  orderIndex,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO questions (survey_id, title, description, question_type, options, required, order_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		q.SurveyID, q.Title, q.Description, string(q.Type), q.Options, q.Required, q.OrderIndex, time.Now().UTC(),
	).Scan(&q.ID)
	if database.IsUniqueViolation(err) {
		return nil, apperr.Conflictf("survey %d was modified concurrently, retry", surveyID)
	}
	if err != nil {
		return nil, apperr.Store("db.insert_question", err)
	}
	return q, nil
}

// normalizeOptions keeps options only for choice questions, where at
// least one non-blank option is required.
func normalizeOptions(nq model.NewQuestion) (model.Options, error) {
	if !nq.Type.HasOptions() {
		return nil, nil
	}

	opts := make(model.Options, 0, len(nq.Options))
	for _, o := range nq.Options {
		if strings.TrimSpace(o) == "" {
			return nil, apperr.Validationf("question %q: options must not be blank", nq.Title)
		}
		opts = append(opts, o)
	}
	if len(opts) == 0 {
		return nil, apperr.Validationf("question %q: options are required for type %s", nq.Title, nq.Type)
	}
	return opts, nil
}
