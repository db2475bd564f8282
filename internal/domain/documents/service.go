// Package documents attaches uploaded files (passport scans, photos,
// receipts) to a profile. Metadata is kept in Postgres and content in a
// blobstore.Store.
package documents

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/casedesk/casedesk/internal/domain/profile"
	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/auth"
	"github.com/casedesk/casedesk/internal/platform/blobstore"
)

type ProfileSource interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
}

// Upload is one file received from a client.
type Upload struct {
	Kind        string
	FileName    string
	ContentType string
	Content     io.Reader
}

type Service struct {
	repo     Repository
	profiles ProfileSource
	store    blobstore.Store
	logger   zerolog.Logger
}

func NewService(repo Repository, profiles ProfileSource, store blobstore.Store, logger zerolog.Logger) *Service {
	return &Service{repo: repo, profiles: profiles, store: store, logger: logger}
}

func storageKey(profileID, id uuid.UUID) string {
	return "profiles/" + profileID.String() + "/documents/" + id.String()
}

// sniff fills in a missing or generic content type from the first bytes.
func sniff(contentType string, r io.Reader) (string, io.Reader) {
	ct := strings.TrimSpace(contentType)
	if ct != "" && ct != "application/octet-stream" {
		return ct, r
	}
	br := bufio.NewReaderSize(r, 512)
	head, _ := br.Peek(512)
	return http.DetectContentType(head), br
}

func mapBlobError(err error) error {
	switch {
	case errors.Is(err, blobstore.ErrFileTooLarge):
		return apperr.New(apperr.CodeTooLarge, msgTooLarge)
	case errors.Is(err, blobstore.ErrInvalidContentType):
		return apperr.Validation(msgBadType, []apperr.FieldError{{Path: "file", Message: msgBadType, Rule: "content_type"}})
	case errors.Is(err, blobstore.ErrBlobNotFound):
		return apperr.NotFound(msgNotFound)
	default:
		return apperr.Internal(err)
	}
}

// Upload stores the content and records its metadata. The blob is removed
// again when the metadata cannot be written.
func (s *Service) Upload(ctx context.Context, profileID uuid.UUID, up Upload) (*Document, error) {
	kind, ok := ParseKind(up.Kind)
	if !ok {
		return nil, apperr.Validation(msgInvalidKind, []apperr.FieldError{{Path: "kind", Message: msgInvalidKind, Rule: "enum"}})
	}
	if up.Content == nil {
		return nil, apperr.Validation(msgNoFile, []apperr.FieldError{{Path: "file", Message: msgNoFile, Rule: "required"}})
	}
	ct, content := sniff(up.ContentType, up.Content)
	if err := blobstore.ValidateContentType(ct); err != nil {
		return nil, mapBlobError(err)
	}
	if _, err := s.profiles.GetProfile(ctx, profileID); err != nil {
		return nil, err
	}

	d := &Document{
		ID:          uuid.New(),
		ProfileID:   profileID,
		Kind:        kind,
		FileName:    filepath.Base(strings.ReplaceAll(up.FileName, `\`, "/")),
		ContentType: ct,
		UploadedBy:  auth.UserIDFromContext(ctx),
	}
	d.StorageKey = storageKey(profileID, d.ID)

	obj, err := s.store.Put(ctx, d.StorageKey, ct, content)
	if err != nil {
		return nil, mapBlobError(err)
	}
	d.Size, d.SHA256 = obj.Size, obj.Hash

	if err := s.repo.Create(ctx, d); err != nil {
		if derr := s.store.Delete(context.WithoutCancel(ctx), d.StorageKey); derr != nil {
			s.logger.Warn().Err(derr).Str("key", d.StorageKey).Msg("remove orphaned document blob")
		}
		return nil, err
	}

	s.logger.Info().
		Str("document_id", d.ID.String()).
		Str("profile_id", profileID.String()).
		Str("kind", string(kind)).
		Int64("size", d.Size).
		Msg("case document uploaded")
	return d, nil
}

func (s *Service) List(ctx context.Context, profileID uuid.UUID) ([]*Document, error) {
	if _, err := s.profiles.GetProfile(ctx, profileID); err != nil {
		return nil, err
	}
	return s.repo.ListByProfile(ctx, profileID)
}

// get loads a document whose profile the caller may see.
func (s *Service) get(ctx context.Context, id uuid.UUID) (*Document, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.profiles.GetProfile(ctx, d.ProfileID); err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return nil, apperr.NotFound(msgNotFound)
		}
		return nil, err
	}
	return d, nil
}

// Open returns the metadata and a reader over the content. The caller
// closes the reader.
func (s *Service) Open(ctx context.Context, id uuid.UUID) (*Document, io.ReadCloser, error) {
	d, err := s.get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, d.StorageKey)
	if err != nil {
		return nil, nil, mapBlobError(fmt.Errorf("open %s: %w", d.StorageKey, err))
	}
	return d, rc, nil
}

// Delete removes the metadata first; a blob left behind is only logged.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	d, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, d.StorageKey); err != nil && !errors.Is(err, blobstore.ErrBlobNotFound) {
		s.logger.Warn().Err(err).Str("key", d.StorageKey).Msg("delete document blob")
	}
	return nil
}
