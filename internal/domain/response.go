package domain

import (
	"errors"
	"time"
)

// ErrResponseNotFound is returned when a response id does not exist.
var ErrResponseNotFound = errors.New("form response not found")

// AnswerType tells the document builder how to present a value.
type AnswerType string

const (
	AnswerText     AnswerType = "text"
	AnswerRichText AnswerType = "rich_text"
	AnswerChoice   AnswerType = "choice"
	AnswerList     AnswerType = "list"
)

// Answer is one field of a submitted form.
type Answer struct {
	Label  string
	Type   AnswerType
	Value  string
	Values []string
}

// FormResponse is a submitted form together with the metadata shown in the
// exported document.
type FormResponse struct {
	ID            string
	TemplateName  string
	WorkspaceName string
	Respondent    string
	SubmittedAt   time.Time
	Answers       []Answer
}
