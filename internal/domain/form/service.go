package form

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/casedesk/casedesk/internal/domain/account"
	"github.com/casedesk/casedesk/internal/domain/profile"
	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/auth"
	"github.com/casedesk/casedesk/internal/platform/cache"
	"github.com/casedesk/casedesk/internal/platform/metrics"
	"github.com/casedesk/casedesk/internal/platform/notification"
)

// ProfileSource loads access-checked profiles.
type ProfileSource interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
}

// AccountSource loads the account that owns a profile.
type AccountSource interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// Notifier delivers templated e-mail.
type Notifier interface {
	SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*notification.Notification, error)
}

// DefaultLeaseTTL bounds how long one mutation may hold a profile's form.
const DefaultLeaseTTL = 30 * time.Second

const notifyTimeout = 30 * time.Second

type Service struct {
	repo       Repository
	profiles   ProfileSource
	accounts   AccountSource
	locker     cache.Locker
	cache      cache.Cache
	cacheTTL   time.Duration
	leaseTTL   time.Duration
	notifier   Notifier
	staffEmail string
	logger     zerolog.Logger
	now        func() time.Time

	wg sync.WaitGroup
}

func NewService(repo Repository, profiles ProfileSource, accounts AccountSource, locker cache.Locker, c cache.Cache, cacheTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		accounts: accounts,
		locker:   locker,
		cache:    c,
		cacheTTL: cacheTTL,
		leaseTTL: DefaultLeaseTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// SetNotifier enables submission e-mails. staffEmail may be empty.
func (s *Service) SetNotifier(n Notifier, staffEmail string) {
	s.notifier = n
	s.staffEmail = staffEmail
}

// Wait blocks until background notifications have finished.
func (s *Service) Wait() { s.wg.Wait() }

func cacheFamily(profileID uuid.UUID) string {
	return "forms:" + profileID.String()
}

// invalidate retires the cached document and the profile details that embed
// its progress.
func (s *Service) invalidate(ctx context.Context, profileID uuid.UUID) {
	if s.cache == nil {
		return
	}
	for _, family := range []string{cacheFamily(profileID), profile.DetailFamily(profileID)} {
		if err := cache.Bump(ctx, s.cache, family); err != nil {
			s.logger.Warn().Err(err).Str("profile_id", profileID.String()).Msg("form cache invalidation failed")
		}
	}
}

// cacheKey returns the current key of the document, or "" when the cache is
// disabled or its tag cannot be read.
func (s *Service) cacheKey(ctx context.Context, profileID uuid.UUID) string {
	if s.cache == nil {
		return ""
	}
	tag, err := cache.Tag(ctx, s.cache, cacheFamily(profileID))
	if err != nil {
		s.logger.Warn().Err(err).Msg("form cache tag read failed")
		return ""
	}
	return cache.TaggedKey(cacheFamily(profileID), tag, "")
}

// GetForm returns the document of a profile the caller may see, creating it
// on first access.
func (s *Service) GetForm(ctx context.Context, profileID uuid.UUID) (*Document, error) {
	if _, err := s.profiles.GetProfile(ctx, profileID); err != nil {
		return nil, err
	}

	key := s.cacheKey(ctx, profileID)
	if key != "" {
		var doc Document
		hit, err := cache.GetJSON(ctx, s.cache, key, &doc)
		if err != nil {
			s.logger.Warn().Err(err).Msg("form cache read failed")
		}
		metrics.CacheResult("form", hit)
		if hit {
			return &doc, nil
		}
	}

	doc, err := s.repo.GetOrCreate(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if key != "" {
		if err := cache.SetJSON(ctx, s.cache, key, doc, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Msg("form cache write failed")
		}
	}
	return doc, nil
}

// Progress implements profile.ProgressSource.
func (s *Service) Progress(ctx context.Context, profileID uuid.UUID) (*profile.Progress, error) {
	doc, err := s.repo.GetOrCreate(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return &profile.Progress{
		LastStep:    doc.LastStep,
		TotalSteps:  StepCount,
		Editable:    doc.Editable,
		Submitted:   doc.SubmittedAt != nil,
		SubmittedAt: doc.SubmittedAt,
		Version:     doc.Version,
	}, nil
}

// withLease runs fn while holding the profile's mutation lease.
func (s *Service) withLease(ctx context.Context, profileID uuid.UUID, fn func() error) error {
	lease, err := s.locker.Acquire(ctx, "form:"+profileID.String(), s.leaseTTL)
	if errors.Is(err, cache.ErrLocked) {
		return apperr.Conflict(msgBusy)
	}
	if err != nil {
		return apperr.Internal(err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn().Err(err).Str("profile_id", profileID.String()).Msg("release form lease")
		}
	}()
	return fn()
}

// checkWritable enforces the editable flag and the optimistic version.
// Staff editing a submitted form bypass the editable flag.
func checkWritable(ctx context.Context, doc *Document, expectedVersion int, staffEditing bool) error {
	if !doc.Editable && !(staffEditing && auth.IsStaff(ctx)) {
		return apperr.Conflict(msgLocked)
	}
	if expectedVersion != 0 && expectedVersion != doc.Version {
		return apperr.Conflict(msgStale).With("version", doc.Version)
	}
	return nil
}

// SaveDraft persists a partial section without full validation.
func (s *Service) SaveDraft(ctx context.Context, profileID uuid.UUID, sectionKey string, req DraftRequest) (res *SaveResult, err error) {
	defer func() { metrics.FormSaves.WithLabelValues("draft", metrics.OutcomeOf(err)).Inc() }()

	section, ok := SectionByKey(sectionKey)
	if !ok {
		return nil, apperr.NotFound(msgNoSection)
	}
	shapeErrs, err := CheckSectionShape(section, req.Fields)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(shapeErrs) > 0 {
		return nil, apperr.Validation("Dados inválidos", shapeErrs)
	}
	if req.RedirectStep != nil && (*req.RedirectStep < 0 || *req.RedirectStep > TerminalStep) {
		return nil, apperr.Validation("Etapa inválida", []apperr.FieldError{
			{Path: "redirectStep", Message: MsgInvalidOption, Rule: RuleInvalidOption},
		})
	}
	if _, err := s.profiles.GetProfile(ctx, profileID); err != nil {
		return nil, err
	}

	err = s.withLease(ctx, profileID, func() error {
		doc, err := s.repo.GetOrCreate(ctx, profileID)
		if err != nil {
			return err
		}
		if err := checkWritable(ctx, doc, req.Version, true); err != nil {
			return err
		}

		doc.Fields = MergeDraft(doc.Fields, ToValues(req.Fields))
		doc.LastStep = max(doc.LastStep, section.Step)
		if req.RedirectStep != nil {
			doc.LastStep = max(doc.LastStep, *req.RedirectStep)
		}
		if err := s.repo.Save(ctx, doc); err != nil {
			return err
		}
		res = &SaveResult{Message: MsgSaved, RedirectStep: req.RedirectStep, Version: doc.Version}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, profileID)
	return res, nil
}

// Submit validates the complete document and persists it as submitted.
func (s *Service) Submit(ctx context.Context, profileID uuid.UUID, req SubmitRequest) (res *SubmitResult, err error) {
	defer func() { metrics.FormSaves.WithLabelValues("submit", metrics.OutcomeOf(err)).Inc() }()

	if req.Step != TerminalStep {
		return nil, apperr.New(apperr.CodeNotTerminalStep, msgNotTerminal).With("redirectStep", TerminalStep)
	}
	shapeErrs, err := CheckDocumentShape(req.Fields)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(shapeErrs) > 0 {
		return nil, apperr.Validation("Dados inválidos", shapeErrs)
	}
	p, err := s.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	err = s.withLease(ctx, profileID, func() error {
		doc, err := s.repo.GetOrCreate(ctx, profileID)
		if err != nil {
			return err
		}
		if err := checkWritable(ctx, doc, req.Version, req.IsEditing); err != nil {
			return err
		}

		merged := MergeSubmit(doc.Fields, ToValues(req.Fields))
		if errs := ValidateDocument(merged); len(errs) > 0 {
			return invalidDocument(errs, req.FromReview)
		}

		now := s.now().UTC()
		doc.Fields = merged
		doc.LastStep = TerminalStep
		doc.SubmittedAt = &now
		doc.Editable = false
		if err := s.repo.Save(ctx, doc); err != nil {
			return err
		}
		res = &SubmitResult{Message: MsgSubmitted, Redirect: RedirectResume, Version: doc.Version, SubmittedAt: now}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, profileID)
	s.notifySubmitted(ctx, p, res.SubmittedAt)
	return res, nil
}

// invalidDocument builds the 422 response for a failed submission. From the
// review modal the client is redirected to the first invalid step instead of
// showing inline errors.
func invalidDocument(errs []apperr.FieldError, fromReview bool) error {
	for key, n := range countBySection(errs) {
		metrics.ValidationErrors.WithLabelValues(key).Add(float64(n))
	}
	ae := apperr.Validation(msgInvalid, errs).WithStatus(http.StatusUnprocessableEntity)
	if step, ok := FirstInvalidStep(errs); ok {
		ae.With("redirectStep", step)
		if fromReview {
			ae.With("redirect", Navigation{Step: step}.Query())
		}
	}
	return ae
}

// SetEditable reopens or locks a document. Staff only.
func (s *Service) SetEditable(ctx context.Context, profileID uuid.UUID, editable bool) (*Document, error) {
	if _, err := s.profiles.GetProfile(ctx, profileID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetOrCreate(ctx, profileID); err != nil {
		return nil, err
	}
	doc, err := s.repo.SetEditable(ctx, profileID, editable)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, profileID)
	return doc, nil
}

// notifySubmitted e-mails the client and staff in the background. Failures
// are logged and never affect the submission.
func (s *Service) notifySubmitted(ctx context.Context, p *profile.Profile, at time.Time) {
	if s.notifier == nil {
		return
	}
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		data := map[string]string{
			"profile_name": p.Name,
			"profile_id":   p.ID.String(),
			"submitted_at": at.Format("02/01/2006 15:04"),
		}
		acc, err := s.accounts.GetAccount(bg, p.AccountID)
		if err != nil {
			s.logger.Warn().Err(err).Str("profile_id", p.ID.String()).Msg("submission notification: load account")
		} else {
			data["name"] = acc.Name
			if _, err := s.notifier.SendFromTemplate(bg, notification.TemplateFormSubmittedClient, data, acc.Email); err != nil {
				s.logger.Warn().Err(err).Str("profile_id", p.ID.String()).Msg("submission notification to client failed")
			}
		}
		if s.staffEmail != "" {
			if _, err := s.notifier.SendFromTemplate(bg, notification.TemplateFormSubmittedStaff, data, s.staffEmail); err != nil {
				s.logger.Warn().Err(err).Str("profile_id", p.ID.String()).Msg("submission notification to staff failed")
			}
		}
	}()
}
