package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/casedesk/casedesk/internal/domain/account"
)

// Status classifies a profile independently of its form progress.
type Status string

const (
	StatusActive   Status = "active"
	StatusProspect Status = "prospect"
	StatusArchived Status = "archived"
)

var validStatuses = map[Status]bool{
	StatusActive: true, StatusProspect: true, StatusArchived: true,
}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	return st, validStatuses[st]
}

// Category is the kind of document the applicant is after.
type Category string

const (
	CategoryVisa     Category = "visa"
	CategoryPassport Category = "passport"
	CategoryETA      Category = "eta"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryVisa, CategoryPassport, CategoryETA}

func validCategory(c Category) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Profile is the case record for one applicant.
type Profile struct {
	ID            uuid.UUID  `json:"id"`
	AccountID     uuid.UUID  `json:"account_id"`
	Name          string     `json:"name"`
	Category      Category   `json:"category"`
	Status        Status     `json:"status"`
	DSStatus      string     `json:"ds_status"`
	VisaStatus    string     `json:"visa_status"`
	PaymentStatus string     `json:"payment_status"`
	ETAStatus     string     `json:"eta_status"`
	InterviewDate *time.Time `json:"interview_date,omitempty"`
	Version       int        `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Progress summarises the form document of a profile.
type Progress struct {
	LastStep    int        `json:"last_step"`
	TotalSteps  int        `json:"total_steps"`
	Editable    bool       `json:"editable"`
	Submitted   bool       `json:"submitted"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	Version     int        `json:"version"`
}

// ClientDetails is the payload of GET /profiles/:id.
type ClientDetails struct {
	Profile  *Profile         `json:"profile"`
	Account  *account.Account `json:"account"`
	Progress *Progress        `json:"progress,omitempty"`
}

// CreateRequest is the body of POST /accounts/:id/profiles.
type CreateRequest struct {
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	InterviewDate *string `json:"interview_date,omitempty"`
}

// UpdateRequest is the body of PUT /profiles/:id (editProfile).
type UpdateRequest struct {
	Name          *string `json:"name,omitempty"`
	Category      *string `json:"category,omitempty"`
	InterviewDate *string `json:"interview_date,omitempty"`
	Version       int     `json:"version,omitempty"`
}

const (
	MsgNotFound    = "Perfil não encontrado"
	msgStale       = "O perfil foi alterado por outra pessoa. Recarregue e tente novamente"
	msgStatusMoved = "O status do perfil já foi alterado"
)

const dateLayout = "2006-01-02"

// parseDate reads an optional YYYY-MM-DD date. An empty string clears it.
func parseDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(*s))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", *s)
	}
	return &t, nil
}
