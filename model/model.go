package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash []byte    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Survey struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	Questions   []Question `json:"questions,omitempty"`
}

type QuestionType string

const (
	TypeText     QuestionType = "text"
	TypeNumber   QuestionType = "number"
	TypeEmail    QuestionType = "email"
	TypeTel      QuestionType = "tel"
	TypeTextarea QuestionType = "textarea"
	TypeSelect   QuestionType = "select"
	TypeRadio    QuestionType = "radio"
	TypeCheckbox QuestionType = "checkbox"
)

// HasOptions reports whether questions of this type carry a choice list.
func (t QuestionType) HasOptions() bool {
	return t == TypeSelect || t == TypeRadio || t == TypeCheckbox
}

type Question struct {
	ID          int64        `json:"id"`
	SurveyID    int64        `json:"survey_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Type        QuestionType `json:"question_type"`
	Options     Options      `json:"options"`
	Required    bool         `json:"required"`
	OrderIndex  int          `json:"order_index"`
}

// NewQuestion carries the caller supplied fields of a question; the
// order index is always assigned by the catalog.
type NewQuestion struct {
	Title       string       `json:"title" validate:"required,max=255"`
	Description string       `json:"description"`
	Type        QuestionType `json:"questionType" validate:"required,oneof=text number email tel textarea select radio checkbox"`
	Options     []string     `json:"options"`
	Required    bool         `json:"required"`
}

// Submission is the header of one completed survey, together with every
// response sharing its session id.
type Submission struct {
	ID              int64      `json:"id"`
	SurveyID        int64      `json:"survey_id"`
	UserID          *int64     `json:"user_id"`
	SessionID       string     `json:"session_id"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	SurveyTitle     string     `json:"survey_title"`
	SurveyCreatedAt time.Time  `json:"survey_created_at"`
	Responses       []Response `json:"responses"`
}

type Response struct {
	ID          int64     `json:"id"`
	QuestionID  int64     `json:"question_id"`
	Answer      string    `json:"answer"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Answer is one collected value. A nil Answer means the value was absent,
// which differs from an empty string.
type Answer struct {
	QuestionID int64   `json:"questionId" validate:"gt=0"`
	Answer     *string `json:"answer"`
}

type SubmitResult struct {
	SessionID    string `json:"sessionId"`
	SubmissionID int64  `json:"submissionId"`
}
