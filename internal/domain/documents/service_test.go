package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casedesk/casedesk/internal/domain/profile"
	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/auth"
	"github.com/casedesk/casedesk/internal/platform/blobstore"
)

type mockRepo struct {
	mu        sync.Mutex
	docs      map[uuid.UUID]*Document
	createErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{docs: make(map[uuid.UUID]*Document)}
}

func (m *mockRepo) Create(_ context.Context, d *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	d.CreatedAt = time.Now()
	cp := *d
	m.docs[d.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, apperr.NotFound(msgNotFound)
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepo) ListByProfile(_ context.Context, profileID uuid.UUID) ([]*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Document{}
	for _, d := range m.docs {
		if d.ProfileID == profileID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return apperr.NotFound(msgNotFound)
	}
	delete(m.docs, id)
	return nil
}

type mockProfiles map[uuid.UUID]*profile.Profile

func (m mockProfiles) GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	p, ok := m[id]
	if !ok {
		return nil, apperr.NotFound(profile.MsgNotFound)
	}
	if err := profile.CheckAccess(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

type fixture struct {
	svc     *Service
	repo    *mockRepo
	store   *blobstore.MemoryStore
	profile *profile.Profile
}

func newFixture() *fixture {
	p := &profile.Profile{ID: uuid.New(), AccountID: uuid.New(), Name: "Ana"}
	repo := newMockRepo()
	store := blobstore.NewMemoryStore()
	return &fixture{
		svc:     NewService(repo, mockProfiles{p.ID: p}, store, zerolog.Nop()),
		repo:    repo,
		store:   store,
		profile: p,
	}
}

func (f *fixture) ownerCtx() context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{
		UserID: "client-1", Roles: []string{auth.RoleClient}, AccountID: f.profile.AccountID.String(),
	})
}

func strangerCtx() context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{
		UserID: "client-2", Roles: []string{auth.RoleClient}, AccountID: uuid.NewString(),
	})
}

var pdf = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")

func TestUpload_StoresContentAndMetadata(t *testing.T) {
	f := newFixture()
	d, err := f.svc.Upload(f.ownerCtx(), f.profile.ID, Upload{
		Kind: "passport", FileName: `C:\scans\passaporte.pdf`, ContentType: "application/pdf", Content: bytes.NewReader(pdf),
	})
	require.NoError(t, err)
	assert.Equal(t, KindPassport, d.Kind)
	assert.Equal(t, "passaporte.pdf", d.FileName)
	assert.Equal(t, int64(len(pdf)), d.Size)
	assert.Len(t, d.SHA256, 64)
	assert.Equal(t, "client-1", d.UploadedBy)
	assert.Equal(t, 1, f.store.Len())

	got, rc, err := f.svc.Open(f.ownerCtx(), d.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pdf, body)
	assert.Equal(t, d.ID, got.ID)
}

func TestUpload_SniffsGenericContentType(t *testing.T) {
	f := newFixture()
	d, err := f.svc.Upload(f.ownerCtx(), f.profile.ID, Upload{ContentType: "application/octet-stream", Content: bytes.NewReader(pdf)})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", d.ContentType)
	assert.Equal(t, KindSupportingDoc, d.Kind)
}

func TestUpload_Rejections(t *testing.T) {
	f := newFixture()
	ctx := f.ownerCtx()

	_, err := f.svc.Upload(ctx, f.profile.ID, Upload{Kind: "selfie", ContentType: "image/png", Content: bytes.NewReader(pdf)})
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	_, err = f.svc.Upload(ctx, f.profile.ID, Upload{ContentType: "application/zip", Content: bytes.NewReader(pdf)})
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	big := bytes.Repeat([]byte("a"), blobstore.MaxFileSize+1)
	_, err = f.svc.Upload(ctx, f.profile.ID, Upload{ContentType: "text/plain", Content: bytes.NewReader(big)})
	assert.Equal(t, apperr.CodeTooLarge, apperr.CodeOf(err))

	_, err = f.svc.Upload(strangerCtx(), f.profile.ID, Upload{ContentType: "text/plain", Content: bytes.NewReader(pdf)})
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	assert.Zero(t, f.store.Len())
}

func TestUpload_MetadataFailureRemovesBlob(t *testing.T) {
	f := newFixture()
	f.repo.createErr = errors.New("insert failed")
	_, err := f.svc.Upload(f.ownerCtx(), f.profile.ID, Upload{ContentType: "application/pdf", Content: bytes.NewReader(pdf)})
	require.Error(t, err)
	assert.Zero(t, f.store.Len())
}

func TestOpen_OtherAccountSeesNotFound(t *testing.T) {
	f := newFixture()
	d, err := f.svc.Upload(f.ownerCtx(), f.profile.ID, Upload{ContentType: "application/pdf", Content: bytes.NewReader(pdf)})
	require.NoError(t, err)

	_, _, err = f.svc.Open(strangerCtx(), d.ID)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	assert.Equal(t, msgNotFound, apperr.UserMessage(err))
}

func TestDelete_RemovesMetadataAndBlob(t *testing.T) {
	f := newFixture()
	d, err := f.svc.Upload(f.ownerCtx(), f.profile.ID, Upload{ContentType: "application/pdf", Content: bytes.NewReader(pdf)})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(f.ownerCtx(), d.ID))
	assert.Zero(t, f.store.Len())
	items, err := f.svc.List(f.ownerCtx(), f.profile.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(f.svc.Delete(f.ownerCtx(), d.ID)))
}

func TestHandler_UploadMultipartAndStream(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("kind", "photo"))
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="file"; filename="foto.png"`},
		"Content-Type":        {"image/png"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf).WithContext(f.ownerCtx())
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.profile.ID.String())
	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"photo"`)
	assert.NotContains(t, rec.Body.String(), "profiles/")

	items, err := f.svc.List(f.ownerCtx(), f.profile.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	req = httptest.NewRequest(http.MethodGet, "/", nil).WithContext(f.ownerCtx())
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(items[0].ID.String())
	require.NoError(t, h.Content(c))
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "foto.png")
	assert.Equal(t, "\x89PNG\r\n\x1a\nfake", rec.Body.String())
}

func TestHandler_UploadWithoutFile(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodPost, "/", nil).WithContext(f.ownerCtx())
	c := echo.New().NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(f.profile.ID.String())
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(NewHandler(f.svc).Upload(c)))
}
