package profile

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/casedesk/casedesk/internal/domain/account"
	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/auth"
	"github.com/casedesk/casedesk/internal/platform/cache"
	"github.com/casedesk/casedesk/internal/platform/confirm"
	"github.com/casedesk/casedesk/internal/platform/metrics"
	"github.com/casedesk/casedesk/pkg/pagination"
)

// AccountReader loads the owning account of a profile.
type AccountReader interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// ProgressSource reports form progress for a profile.
type ProgressSource interface {
	Progress(ctx context.Context, profileID uuid.UUID) (*Progress, error)
}

type Service struct {
	repo     Repository
	accounts AccountReader
	progress ProgressSource
	cache    cache.Cache
	ttl      time.Duration
	confirm  *confirm.Service
	logger   zerolog.Logger

	notifier   Notifier
	staffEmail string
	wg         sync.WaitGroup
}

func NewService(repo Repository, accounts AccountReader, c cache.Cache, ttl time.Duration, logger zerolog.Logger) *Service {
	return &Service{repo: repo, accounts: accounts, cache: c, ttl: ttl, logger: logger}
}

func (s *Service) SetProgressSource(p ProgressSource) { s.progress = p }

func listFamily(status Status) string {
	return "profiles:list:" + string(status)
}

// DetailFamily is the cache family of the client details of a profile.
func DetailFamily(id uuid.UUID) string {
	return "profiles:detail:" + id.String()
}

// CheckAccess hides profiles the caller may not see behind NOT_FOUND.
func CheckAccess(ctx context.Context, p *Profile) error {
	if !auth.CanAccessAccount(ctx, p.AccountID.String()) {
		return apperr.NotFound(MsgNotFound)
	}
	return nil
}

// invalidate retires the detail entry of id and the listings of every given
// status.
func (s *Service) invalidate(ctx context.Context, id uuid.UUID, statuses ...Status) {
	if s.cache == nil {
		return
	}
	if err := cache.Bump(ctx, s.cache, DetailFamily(id)); err != nil {
		s.logger.Warn().Err(err).Str("profile_id", id.String()).Msg("cache invalidation failed")
	}
	for _, st := range statuses {
		if err := cache.Bump(ctx, s.cache, listFamily(st)); err != nil {
			s.logger.Warn().Err(err).Str("status", string(st)).Msg("cache invalidation failed")
			continue
		}
		if err := s.cache.DeletePrefix(ctx, listFamily(st)+":"); err != nil {
			s.logger.Warn().Err(err).Str("status", string(st)).Msg("cache cleanup failed")
		}
	}
}

// cacheKey resolves the current key of suffix in family. It returns "" when
// the tag cannot be read, and the caller then bypasses the cache.
func (s *Service) cacheKey(ctx context.Context, family, suffix string) string {
	if s.cache == nil {
		return ""
	}
	tag, err := cache.Tag(ctx, s.cache, family)
	if err != nil {
		s.logger.Warn().Err(err).Str("family", family).Msg("cache tag read failed")
		return ""
	}
	return cache.TaggedKey(family, tag, suffix)
}

func (s *Service) CreateProfile(ctx context.Context, accountID uuid.UUID, req CreateRequest) (*Profile, error) {
	if _, err := s.accounts.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	p := &Profile{
		AccountID: accountID,
		Name:      strings.TrimSpace(req.Name),
		Category:  Category(req.Category),
		Status:    StatusActive,
	}
	if p.Category == "" {
		p.Category = CategoryVisa
	}
	var errs []apperr.FieldError
	if p.Name == "" {
		errs = append(errs, apperr.FieldError{Path: "name", Message: "Campo obrigatório", Rule: "required"})
	}
	if !validCategory(p.Category) {
		errs = append(errs, apperr.FieldError{Path: "category", Message: "Opção inválida", Rule: "enum"})
	}
	date, err := parseDate(req.InterviewDate)
	if err != nil {
		errs = append(errs, apperr.FieldError{Path: "interview_date", Message: "Data inválida", Rule: "date"})
	}
	p.InterviewDate = date
	if len(errs) > 0 {
		return nil, apperr.Validation("Dados do perfil inválidos", errs)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, p.ID, p.Status)
	return p, nil
}

// GetProfile loads a profile the caller is allowed to see.
func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckAccess(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetClientDetails returns the profile with its account and form progress.
func (s *Service) GetClientDetails(ctx context.Context, id uuid.UUID) (*ClientDetails, error) {
	var details ClientDetails
	key := s.cacheKey(ctx, DetailFamily(id), "")
	if key != "" {
		hit, err := cache.GetJSON(ctx, s.cache, key, &details)
		if err != nil {
			s.logger.Warn().Err(err).Msg("profile detail cache read failed")
		}
		metrics.CacheResult("profile_detail", hit)
		if hit {
			if err := CheckAccess(ctx, details.Profile); err != nil {
				return nil, err
			}
			return &details, nil
		}
	}

	p, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	acc, err := s.accounts.GetAccount(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	details = ClientDetails{Profile: p, Account: acc}
	if s.progress != nil {
		prog, err := s.progress.Progress(ctx, id)
		if err != nil {
			return nil, err
		}
		details.Progress = prog
	}

	if key != "" {
		if err := cache.SetJSON(ctx, s.cache, key, &details, s.ttl); err != nil {
			s.logger.Warn().Err(err).Msg("profile detail cache write failed")
		}
	}
	return &details, nil
}

type listPage struct {
	Items []*Profile `json:"items"`
	Total int        `json:"total"`
}

// ListByStatus returns one page of the listing for status.
func (s *Service) ListByStatus(ctx context.Context, status Status, pg pagination.Params) ([]*Profile, int, error) {
	key := s.cacheKey(ctx, listFamily(status), pg.Key())
	if key != "" {
		var page listPage
		hit, err := cache.GetJSON(ctx, s.cache, key, &page)
		if err != nil {
			s.logger.Warn().Err(err).Msg("profile list cache read failed")
		}
		metrics.CacheResult("profile_list", hit)
		if hit {
			return page.Items, page.Total, nil
		}
	}

	items, total, err := s.repo.ListByStatus(ctx, status, pg.Limit, pg.Offset)
	if err != nil {
		return nil, 0, err
	}
	if key != "" {
		if err := cache.SetJSON(ctx, s.cache, key, listPage{Items: items, Total: total}, s.ttl); err != nil {
			s.logger.Warn().Err(err).Msg("profile list cache write failed")
		}
	}
	return items, total, nil
}

// ListByAccount returns every profile of an account the caller may see.
func (s *Service) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Profile, error) {
	if !auth.CanAccessAccount(ctx, accountID.String()) {
		return nil, apperr.NotFound("Conta não encontrada")
	}
	return s.repo.ListByAccount(ctx, accountID)
}

// UpdateProfile applies editProfile.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Profile, error) {
	p, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	var errs []apperr.FieldError
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
		if p.Name == "" {
			errs = append(errs, apperr.FieldError{Path: "name", Message: "Campo obrigatório", Rule: "required"})
		}
	}
	if req.Category != nil {
		p.Category = Category(*req.Category)
		if !validCategory(p.Category) {
			errs = append(errs, apperr.FieldError{Path: "category", Message: "Opção inválida", Rule: "enum"})
		}
	}
	if req.InterviewDate != nil {
		date, err := parseDate(req.InterviewDate)
		if err != nil {
			errs = append(errs, apperr.FieldError{Path: "interview_date", Message: "Data inválida", Rule: "date"})
		}
		p.InterviewDate = date
	}
	if len(errs) > 0 {
		return nil, apperr.Validation("Dados do perfil inválidos", errs)
	}

	p.Version = req.Version
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, p.ID, p.Status)
	return p, nil
}
