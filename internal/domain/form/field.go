package form

import (
	"net/mail"
	"strings"
	"time"

	"github.com/casedesk/casedesk/internal/platform/apperr"
)

// Confirmation answers. Unanswered is the empty value and is never valid on
// final submission.
const (
	Unanswered = ""
	No         = "Não"
	Yes        = "Sim"
)

// User-facing validation messages.
const (
	MsgMissingSelection = "Selecione uma opção"
	MsgMissingDetails   = "Campo obrigatório caso a opção seja sim"
	MsgRequired         = "Campo obrigatório"
	MsgInvalidOption    = "Opção inválida"
	MsgInvalidDate      = "Data inválida"
	MsgInvalidEmail     = "E-mail inválido"
)

// Rule tags carried on each FieldError.
const (
	RuleMissingSelection = "missing_selection"
	RuleMissingDetails   = "missing_details"
	RuleRequired         = "required"
	RuleInvalidOption    = "invalid_option"
	RuleDate             = "date"
	RuleEmail            = "email"
)

const dateLayout = "2006-01-02"

// Kind selects the format rule of a plain field.
type Kind int

const (
	KindText Kind = iota
	KindLongText
	KindDate
	KindEmail
	KindSelect
)

// Field is a plain form control.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Required bool
	Options  []string
}

// MaxLen bounds the accepted length of the raw value.
func (f Field) MaxLen() int {
	switch f.Kind {
	case KindLongText:
		return 2000
	case KindDate:
		return 10
	case KindEmail:
		return 320
	default:
		return 255
	}
}

// Validate checks the field against values. Blank optional fields pass.
func (f Field) Validate(values map[string]string) *apperr.FieldError {
	v := strings.TrimSpace(values[f.Name])
	if v == "" {
		if f.Required {
			return &apperr.FieldError{Path: f.Name, Message: MsgRequired, Rule: RuleRequired}
		}
		return nil
	}

	switch f.Kind {
	case KindDate:
		if _, err := time.Parse(dateLayout, v); err != nil {
			return &apperr.FieldError{Path: f.Name, Message: MsgInvalidDate, Rule: RuleDate}
		}
	case KindEmail:
		if _, err := mail.ParseAddress(v); err != nil {
			return &apperr.FieldError{Path: f.Name, Message: MsgInvalidEmail, Rule: RuleEmail}
		}
	case KindSelect:
		if !contains(f.Options, v) {
			return &apperr.FieldError{Path: f.Name, Message: MsgInvalidOption, Rule: RuleInvalidOption}
		}
	}
	return nil
}

// ConditionalPair is a yes/no question whose details field is required only
// when the answer is Yes.
type ConditionalPair struct {
	Confirmation string
	Details      string
	Label        string
}

// Pair names a question by its stem: "crime" yields crimeConfirmation and
// crimeConfirmationDetails.
func Pair(stem, label string) ConditionalPair {
	c := stem + "Confirmation"
	return ConditionalPair{Confirmation: c, Details: c + "Details", Label: label}
}

// Validate returns at most one error for the pair.
func (p ConditionalPair) Validate(values map[string]string) *apperr.FieldError {
	switch values[p.Confirmation] {
	case Unanswered:
		return &apperr.FieldError{Path: p.Confirmation, Message: MsgMissingSelection, Rule: RuleMissingSelection}
	case Yes:
		if strings.TrimSpace(values[p.Details]) == "" {
			return &apperr.FieldError{Path: p.Details, Message: MsgMissingDetails, Rule: RuleMissingDetails}
		}
	case No:
	default:
		return &apperr.FieldError{Path: p.Confirmation, Message: MsgInvalidOption, Rule: RuleInvalidOption}
	}
	return nil
}

// DetailsHidden reports whether the details control is hidden for values.
// Hidden details stay in the stored record.
func (p ConditionalPair) DetailsHidden(values map[string]string) bool {
	return values[p.Confirmation] != Yes
}

func contains(list []string, v string) bool {
	for _, o := range list {
		if o == v {
			return true
		}
	}
	return false
}
