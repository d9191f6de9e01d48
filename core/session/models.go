package session

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/gongbuapp/gongbu/core"
)

// Session is a single logged study activity. Sessions are immutable once
// logged; the scoring layer only ever reads them.
//
// PercentComplete is the learner's self-reported completion rate. It is kept
// for display but deliberately never feeds the engagement score: the product
// rewards consistency and effort, not outcomes.
type Session struct {
	ID              string      `json:"id" db:"id"`
	UserID          string      `json:"user_id" db:"user_id"`
	PercentComplete int         `json:"percent_complete" db:"percent_complete"`
	Reflection      null.String `json:"reflection" db:"reflection"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}

// ReflectionText returns the trimmed reflection, or "" when none was written.
func (s Session) ReflectionText() string {
	if !s.Reflection.Valid {
		return ""
	}
	return core.CleanString(s.Reflection.String)
}

// NewSession contains information needed to log a new Session.
type NewSession struct {
	PercentComplete int       `json:"percent_complete" validate:"min=0,max=100"`
	Reflection      string    `json:"reflection"`
	CreatedAt       time.Time `json:"created_at"` // optional; server time when zero
}

func (ns *NewSession) Validate(validate *validator.Validate, translator ut.Translator) error {
	ns.Reflection = core.CleanString(ns.Reflection)
	if err := validate.Struct(ns); err != nil {
		return err
	}
	if !ns.CreatedAt.IsZero() && ns.CreatedAt.After(time.Now().Add(time.Minute)) {
		return core.NewValidationError(nil, core.FieldError{Field: "created_at", Error: "cannot be in the future"})
	}
	return nil
}
