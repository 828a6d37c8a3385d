// Package submission records completed surveys and reads them back.
//
// A submission is a header row plus one response row per answered
// question. Both carry the same session id, which is the grouping key
// for reads and deletes.
package submission

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mbolis/quick-survey/apperr"
	"github.com/mbolis/quick-survey/database"
	"github.com/mbolis/quick-survey/log"
	"github.com/mbolis/quick-survey/model"
)

// UserLookup resolves a username or email to a user.
type UserLookup interface {
	FindByIdentifier(ctx context.Context, usernameOrEmail string) (*model.User, error)
}

type Aggregator struct {
	db    *sql.DB
	users UserLookup
	now   func() time.Time
}

func New(db *sql.DB, users UserLookup) *Aggregator {
	return &Aggregator{
		db:    db,
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

type Request struct {
	SurveyID int64          `validate:"gt=0"`
	Answers  []model.Answer `validate:"required,min=1,dive"`
	// UserID is nil for anonymous respondents.
	UserID *int64
	// SessionID lets a client retry safely; empty means generate one.
	SessionID string `validate:"omitempty,max=255"`
}

// Submit stores one submission header and one response per answer in a
// single transaction.
func (a *Aggregator) Submit(ctx context.Context, req Request) (*model.SubmitResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	now := a.now()
	userID := nullable(req.UserID)

	result := &model.SubmitResult{SessionID: sessionID}
	err := database.WithTx(ctx, a.db, func(tx *sql.Tx) error {
		if err := checkQuestions(ctx, tx, req); err != nil {
			return err
		}

		err := tx.QueryRowContext(ctx, `
			INSERT INTO submissions (survey_id, user_id, session_id, submitted_at)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			req.SurveyID, userID, sessionID, now,
		).Scan(&result.SubmissionID)
		if database.IsUniqueViolation(err) {
			return apperr.Conflictf("session %s was already submitted", sessionID)
		}
		if database.IsForeignKeyViolation(err) && req.UserID != nil {
			return apperr.NotFoundf("user %d not found", *req.UserID)
		}
		if err != nil {
			return apperr.Store("db.insert_submission", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO responses (survey_id, question_id, user_id, session_id, answer, submitted_at)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return apperr.Store("db.insert_submission.responses.prepare", err)
		}
		defer stmt.Close()

		for _, ans := range req.Answers {
			_, err = stmt.ExecContext(ctx, req.SurveyID, ans.QuestionID, userID, sessionID, *ans.Answer, now)
			if err != nil {
				return apperr.Store("db.insert_submission.responses.insert", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Store("db.insert_submission.commit", err)
	}

	log.WithFields(log.Fields{
		"survey_id":     req.SurveyID,
		"submission_id": result.SubmissionID,
		"responses":     len(req.Answers),
		"anonymous":     req.UserID == nil,
	}).Debug("submission stored")
	return result, nil
}

func validateRequest(req Request) error {
	if len(req.Answers) == 0 {
		return apperr.Validationf("answers are required and must be a non-empty list")
	}
	if err := model.Validate(req); err != nil {
		return err
	}

	seen := make(map[int64]bool, len(req.Answers))
	for _, ans := range req.Answers {
		if ans.Answer == nil {
			return apperr.Validationf("question %d: each response must have questionId and answer", ans.QuestionID)
		}
		if seen[ans.QuestionID] {
			return apperr.Validationf("question %d answered more than once", ans.QuestionID)
		}
		seen[ans.QuestionID] = true
	}
	return nil
}

// checkQuestions verifies the survey exists and owns every answered
// question.
func checkQuestions(ctx context.Context, tx *sql.Tx, req Request) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT s.id, q.id
		FROM surveys s
		LEFT OUTER JOIN questions q ON (s.id = q.survey_id)
		WHERE s.id = ?`,
		req.SurveyID,
	)
	if err != nil {
		return apperr.Store("db.get_survey_questions", err)
	}
	defer rows.Close()

	found := false
	owned := map[int64]bool{}
	for rows.Next() {
		found = true
		var surveyID int64
		var questionID sql.NullInt64
		if err = rows.Scan(&surveyID, &questionID); err != nil {
			return apperr.Store("db.get_survey_questions.scan", err)
		}
		if questionID.Valid {
			owned[questionID.Int64] = true
		}
	}
	if err = rows.Err(); err != nil {
		return apperr.Store("db.get_survey_questions.rows", err)
	}
	if !found {
		return apperr.NotFoundf("survey %d not found", req.SurveyID)
	}

	for _, ans := range req.Answers {
		if !owned[ans.QuestionID] {
			return apperr.Validationf("question %d does not belong to survey %d", ans.QuestionID, req.SurveyID)
		}
	}
	return nil
}

// GetByID returns (nil, nil) when no submission has the given id.
func (a *Aggregator) GetByID(ctx context.Context, id int64) (*model.Submission, error) {
	return a.getOne(ctx, "db.get_submission_by_id", `ss.id = ?`, id)
}

// GetBySession returns (nil, nil) when no submission has the given session.
func (a *Aggregator) GetBySession(ctx context.Context, sessionID string) (*model.Submission, error) {
	return a.getOne(ctx, "db.get_submission_by_session", `ss.session_id = ?`, sessionID)
}

// GetAllForUser lists a user's submissions, newest first.
func (a *Aggregator) GetAllForUser(ctx context.Context, userID int64) ([]model.Submission, error) {
	return a.query(ctx, "db.get_user_submissions", `WHERE ss.user_id = ?`, userID)
}

// GetAllForUsername resolves the user first; an unknown user yields an
// empty list.
func (a *Aggregator) GetAllForUsername(ctx context.Context, usernameOrEmail string) ([]model.Submission, error) {
	user, err := a.users.FindByIdentifier(ctx, usernameOrEmail)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []model.Submission{}, nil
	}
	return a.GetAllForUser(ctx, user.ID)
}

// GetAll lists every submission in the system, newest first.
// TODO paginate once the admin listing needs to scale past a few thousand rows.
func (a *Aggregator) GetAll(ctx context.Context) ([]model.Submission, error) {
	return a.query(ctx, "db.get_all_submissions", "")
}

func (a *Aggregator) getOne(ctx context.Context, op, cond string, arg any) (*model.Submission, error) {
	subs, err := a.query(ctx, op, "WHERE "+cond, arg)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return &subs[0], nil
}

// query joins headers with their survey and their responses, then folds
// the rows back into one Submission per header.
func (a *Aggregator) query(ctx context.Context, op, where string, args ...any) ([]model.Submission, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			ss.id, ss.survey_id, ss.user_id, ss.session_id, ss.submitted_at,
			s.title, s.created_at,
			r.id, r.question_id, r.answer, r.submitted_at
		FROM submissions ss
		INNER JOIN surveys s ON (ss.survey_id = s.id)
		LEFT OUTER JOIN responses r ON (ss.session_id = r.session_id)
		`+where+`
		ORDER BY ss.submitted_at DESC, ss.id DESC, r.id ASC`,
		args...,
	)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	defer rows.Close()

	submissions := []model.Submission{}
	for rows.Next() {
		s := model.Submission{}
		var userID sql.NullInt64
		var respID, questionID sql.NullInt64
		var answer sql.NullString
		var answeredAt sql.NullTime

		err = rows.Scan(
			&s.ID, &s.SurveyID, &userID, &s.SessionID, &s.SubmittedAt,
			&s.SurveyTitle, &s.SurveyCreatedAt,
			&respID, &questionID, &answer, &answeredAt,
		)
		if err != nil {
			return nil, apperr.Store(op+".scan", err)
		}

		lastIdx := len(submissions) - 1
		if lastIdx < 0 || submissions[lastIdx].ID != s.ID {
			if userID.Valid {
				id := userID.Int64
				s.UserID = &id
			}
			s.Responses = []model.Response{}
			submissions = append(submissions, s)
			lastIdx++
		}

		if respID.Valid {
			submissions[lastIdx].Responses = append(submissions[lastIdx].Responses, model.Response{
				ID:          respID.Int64,
				QuestionID:  questionID.Int64,
				Answer:      answer.String,
				SubmittedAt: answeredAt.Time,
			})
		}
	}
	return submissions, apperr.Store(op+".rows", rows.Err())
}

// DeleteOne removes a submission owned by callerUserID together with
// every response sharing its session.
func (a *Aggregator) DeleteOne(ctx context.Context, submissionID, callerUserID int64) error {
	err := database.WithTx(ctx, a.db, func(tx *sql.Tx) error {
		var owner sql.NullInt64
		var sessionID string
		err := tx.QueryRowContext(ctx, `
			SELECT user_id, session_id FROM submissions WHERE id = ?`,
			submissionID,
		).Scan(&owner, &sessionID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFoundf("submission %d not found", submissionID)
		}
		if err != nil {
			return apperr.Store("db.delete_submission.owner", err)
		}
		if !owner.Valid || owner.Int64 != callerUserID {
			return apperr.Forbidden("not authorized to delete this submission")
		}

		return deleteSession(ctx, tx, submissionID, sessionID)
	})
	return apperr.Store("db.delete_submission.commit", err)
}

// DeleteAllForUser removes every submission of the user. A user without
// submissions is a no-op.
func (a *Aggregator) DeleteAllForUser(ctx context.Context, userID int64) error {
	err := database.WithTx(ctx, a.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id, session_id FROM submissions WHERE user_id = ?`,
			userID,
		)
		if err != nil {
			return apperr.Store("db.delete_user_submissions.list", err)
		}

		type header struct {
			id      int64
			session string
		}
		var headers []header
		for rows.Next() {
			var h header
			if err = rows.Scan(&h.id, &h.session); err != nil {
				rows.Close()
				return apperr.Store("db.delete_user_submissions.scan", err)
			}
			headers = append(headers, h)
		}
		rows.Close()
		if err = rows.Err(); err != nil {
			return apperr.Store("db.delete_user_submissions.rows", err)
		}

		for _, h := range headers {
			if err = deleteSession(ctx, tx, h.id, h.session); err != nil {
				return err
			}
		}
		log.WithFields(log.Fields{"user_id": userID, "submissions": len(headers)}).Debug("user submissions deleted")
		return nil
	})
	return apperr.Store("db.delete_user_submissions.commit", err)
}

func deleteSession(ctx context.Context, tx *sql.Tx, submissionID int64, sessionID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM responses WHERE session_id = ?`, sessionID)
	if err != nil {
		return apperr.Store("db.delete_submission.responses", err)
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM submissions WHERE id = ?`, submissionID)
	return apperr.Store("db.delete_submission", err)
}

func nullable(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
