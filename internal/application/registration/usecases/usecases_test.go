package usecases

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landreg/cadastre/internal/application/registration/dto"
	"github.com/landreg/cadastre/internal/domain/document"
	"github.com/landreg/cadastre/internal/domain/registration"
	"github.com/landreg/cadastre/internal/domain/shared/events"
	"github.com/landreg/cadastre/internal/infrastructure/repository"
	"github.com/landreg/cadastre/internal/infrastructure/testutil"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/db"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/logger"
)

const testTTL = 72 * time.Hour

var (
	clerk = authorization.Actor{UserID: 10, Role: authorization.RoleSubcityNormal, SubAuthority: "BOLE"}
	other = authorization.Actor{UserID: 11, Role: authorization.RoleSubcityNormal, SubAuthority: "BOLE"}
	admin = authorization.Actor{UserID: 30, Role: authorization.RoleCityAdmin}
)

type fakeGateway struct {
	mu      sync.Mutex
	next    int
	stored  map[string]document.File
	deleted []string
	failErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{stored: make(map[string]document.File)}
}

func (g *fakeGateway) StoreHandle(_ context.Context, _ uint, file document.File) (document.Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failErr != nil {
		return document.Handle{}, g.failErr
	}
	g.next++
	id := fmt.Sprintf("doc-%d", g.next)
	g.stored[id] = file
	return document.Handle{
		ID:         id,
		URL:        "https://files.example.org/" + id,
		Name:       file.Name,
		UploadedAt: time.Now().UTC(),
	}, nil
}

func (g *fakeGateway) DeleteHandle(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.stored, id)
	g.deleted = append(g.deleted, id)
	return nil
}

type fixture struct {
	sessions *repository.RegistrationSessionRepository
	docs     *repository.SessionDocumentRepository
	gateway  *fakeGateway
	recorder *events.Recorder

	create   *CreateSessionUseCase
	get      *GetSessionUseCase
	list     *ListSessionsUseCase
	save     *SaveStepUseCase
	attach   *AttachDocumentUseCase
	remove   *RemoveDocumentUseCase
	validate *ValidateSessionUseCase
	abandon  *AbandonSessionUseCase
	expire   *ExpireSessionsUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := testutil.NewDB(t)
	log := logger.NewNopLogger()
	tx := db.NewTransactionManager(gdb)
	sessions := repository.NewRegistrationSessionRepository(gdb)
	docs := repository.NewSessionDocumentRepository(gdb)
	gateway := newFakeGateway()
	recorder := &events.Recorder{}

	return &fixture{
		sessions: sessions,
		docs:     docs,
		gateway:  gateway,
		recorder: recorder,
		create:   NewCreateSessionUseCase(sessions, tx, recorder, testTTL, log),
		get:      NewGetSessionUseCase(sessions, log),
		list:     NewListSessionsUseCase(sessions, log),
		save:     NewSaveStepUseCase(sessions, tx, testTTL, log),
		attach:   NewAttachDocumentUseCase(sessions, docs, gateway, tx, log),
		remove:   NewRemoveDocumentUseCase(sessions, docs, tx, log),
		validate: NewValidateSessionUseCase(sessions, log),
		abandon:  NewAbandonSessionUseCase(sessions, docs, tx, log),
		expire:   NewExpireSessionsUseCase(sessions, recorder, 10, log),
	}
}

func (f *fixture) open(t *testing.T, actor authorization.Actor) *dto.SessionResponse {
	t.Helper()
	s, _, err := f.create.Execute(context.Background(), actor)
	require.NoError(t, err)
	return s
}

func parcelBody(upin, tenure string) []byte {
	return []byte(`{
		"upin": "` + upin + `", "file_number": "F-1", "sub_city": "Bole", "wereda": "03",
		"total_area_m2": "500", "land_use": "RESIDENTIAL", "tenure_type": "` + tenure + `"
	}`)
}

var ownerBody = []byte(`{
	"full_name": "Abebe Kebede", "national_id": "NID-1", "phone_number": "+251911000000", "share_ratio": "1"
}`)

func TestCreateSession_ResumesOpenDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, created, err := f.create.Execute(ctx, clerk)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, string(registration.StatusDraft), first.Status)
	assert.Equal(t, "BOLE", first.SubAuthority)
	assert.Equal(t, []string{"parcel", "parcel-docs", "owner", "owner-docs", "validation"}, first.AvailableSteps)

	again, created, err := f.create.Execute(ctx, clerk)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.SessionID, again.SessionID)

	theirs := f.open(t, other)
	assert.NotEqual(t, first.SessionID, theirs.SessionID)

	_, _, err = f.create.Execute(ctx, authorization.Actor{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeUnauthorized, errors.GetAppError(err).Type)
}

func TestCreateSession_ReplacesExpiredDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.open(t, clerk)

	f.create.now = func() time.Time { return time.Now().UTC().Add(testTTL + time.Hour) }
	second, created, err := f.create.Execute(ctx, clerk)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	old, err := f.sessions.GetBySessionID(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, registration.StatusExpired, old.Status())
	assert.Equal(t, []string{events.EventSessionExpired}, f.recorder.Types())
}

func TestCreateSession_ConcurrentCallsShareOneDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 4)
	errs := make([]error, 4)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, _, err := f.create.Execute(ctx, clerk)
			errs[i] = err
			if err == nil {
				ids[i] = s.SessionID
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, sid := range ids[1:] {
		assert.Equal(t, ids[0], sid)
	}
}

func TestSaveStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t, clerk)

	_, err := f.save.Execute(ctx, clerk, s.SessionID, "bogus", nil)
	assert.True(t, errors.HasReason(err, errors.ReasonInvalidPayload))

	_, err = f.save.Execute(ctx, clerk, s.SessionID, "parcel", []byte(`{"upin": ""}`))
	assert.True(t, errors.HasReason(err, errors.ReasonInvalidPayload))

	_, err = f.save.Execute(ctx, clerk, s.SessionID, "lease", []byte(`{}`))
	assert.True(t, errors.HasReason(err, errors.ReasonInvalidPayload), "lease only applies to LEASE tenure")

	_, err = f.save.Execute(ctx, other, s.SessionID, "parcel", parcelBody("BL-1", "OLD_POSSESSION"))
	assert.True(t, errors.HasReason(err, errors.ReasonForbidden))

	_, err = f.save.Execute(ctx, clerk, "rs_missing", "parcel", parcelBody("BL-1", "OLD_POSSESSION"))
	assert.True(t, errors.IsNotFoundError(err))

	resp, err := f.save.Execute(ctx, clerk, s.SessionID, "parcel", parcelBody("BL-1", "LEASE"))
	require.NoError(t, err)
	assert.Equal(t, "parcel", resp.CurrentStep)
	require.NotNil(t, resp.ParcelData)
	assert.Equal(t, "BL-1", resp.ParcelData.UPIN)
	assert.Contains(t, resp.AvailableSteps, "lease")
	assert.True(t, resp.ExpiresAt.After(s.ExpiresAt) || resp.ExpiresAt.Equal(s.ExpiresAt))

	resp, err = f.save.Execute(ctx, clerk, s.SessionID, "parcel-docs", nil)
	require.NoError(t, err)
	assert.Equal(t, "parcel-docs", resp.CurrentStep)

	_, err = f.save.Execute(ctx, clerk, s.SessionID, "parcel-docs", []byte(`{"upin": "x"}`))
	assert.True(t, errors.HasReason(err, errors.ReasonInvalidPayload))

	f.save.now = func() time.Time { return time.Now().UTC().Add(testTTL + time.Hour) }
	_, err = f.save.Execute(ctx, clerk, s.SessionID, "owner", ownerBody)
	assert.True(t, errors.HasReason(err, errors.ReasonExpired))
}

func TestValidateSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t, clerk)

	res, err := f.validate.Execute(ctx, clerk, s.SessionID)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Len(t, res.Missing, 2)

	_, err = f.save.Execute(ctx, clerk, s.SessionID, "parcel", parcelBody("BL-1", "LEASE"))
	require.NoError(t, err)
	_, err = f.save.Execute(ctx, clerk, s.SessionID, "owner", ownerBody)
	require.NoError(t, err)

	res, err = f.validate.Execute(ctx, clerk, s.SessionID)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.Missing, 1)
	assert.Contains(t, res.Missing[0], "lease")

	_, err = f.save.Execute(ctx, clerk, s.SessionID, "lease", []byte(`{
		"leased_area_m2": "500", "total_lease_amount": "100000", "down_payment": "10000",
		"start_date": "2024-01-01", "expiry_date": "2054-01-01"
	}`))
	require.NoError(t, err)

	res, err = f.validate.Execute(ctx, admin, s.SessionID)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Missing)

	_, err = f.validate.Execute(ctx, other, s.SessionID)
	assert.True(t, errors.HasReason(err, errors.ReasonForbidden))
}

func TestAttachDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t, clerk)

	upload := func() *document.File {
		return &document.File{Name: "title.pdf", ContentType: "application/pdf", Size: 4, Body: strings.NewReader("%PDF")}
	}

	resp, err := f.attach.Execute(ctx, clerk, AttachDocumentCommand{SessionID: s.SessionID, Step: "parcel-docs", File: upload()})
	require.NoError(t, err)
	assert.True(t, resp.Attached)
	assert.Equal(t, "doc-1", resp.Handle.ID)
	require.Len(t, resp.Handles, 1)

	handle := resp.Handle
	resp, err = f.attach.Execute(ctx, clerk, AttachDocumentCommand{SessionID: s.SessionID, Step: "parcel-docs", Handle: &handle})
	require.NoError(t, err)
	assert.False(t, resp.Attached, "re-attaching a handle is a no-op")
	assert.Len(t, resp.Handles, 1)

	_, err = f.attach.Execute(ctx, clerk, AttachDocumentCommand{
		SessionID: s.SessionID,
		Step:      "owner-docs",
		Handle:    &document.Handle{ID: "ext-1", URL: "not a url", Name: "id.png"},
	})
	assert.True(t, errors.HasReason(err, errors.ReasonInvalidPayload))

	resp, err = f.attach.Execute(ctx, clerk, AttachDocumentCommand{
		SessionID: s.SessionID,
		Step:      "owner-docs",
		Handle:    &document.Handle{ID: "ext-1", URL: "https://files.example.org/ext-1", Name: "id.png"},
	})
	require.NoError(t, err)
	assert.False(t, resp.Handle.UploadedAt.IsZero())

	view, err := f.get.Execute(ctx, clerk, s.SessionID)
	require.NoError(t, err)
	assert.Len(t, view.Documents["parcel-docs"], 1)
	assert.Len(t, view.Documents["owner-docs"], 1)

	_, err = f.attach.Execute(ctx, clerk, AttachDocumentCommand{SessionID: s.SessionID, Step: "owner", File: upload()})
	assert.True(t, errors.HasReason(err, errors.ReasonInvalidPayload), "owner is not a document step")

	_, err = f.attach.Execute(ctx, clerk, AttachDocumentCommand{SessionID: s.SessionID, Step: "lease-docs", File: upload()})
	assert.True(t, errors.HasReason(err, errors.ReasonInvalidPayload), "lease docs need LEASE tenure")

	_, err = f.attach.Execute(ctx, clerk, AttachDocumentCommand{SessionID: s.SessionID, Step: "parcel-docs"})
	assert.True(t, errors.HasReason(err, errors.ReasonInvalidPayload))

	_, err = f.attach.Execute(ctx, other, AttachDocumentCommand{SessionID: s.SessionID, Step: "parcel-docs", File: upload()})
	assert.True(t, errors.HasReason(err, errors.ReasonForbidden))

	assert.Len(t, f.gateway.stored, 1, "rejected uploads never reach the gateway")
}

func TestAttachDocument_GatewayFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t, clerk)
	f.gateway.failErr = errors.NewInternalError("storage offline")

	_, err := f.attach.Execute(ctx, clerk, AttachDocumentCommand{
		SessionID: s.SessionID,
		Step:      "parcel-docs",
		File:      &document.File{Name: "a.pdf", Body: strings.NewReader("x")},
	})
	require.Error(t, err)

	view, err := f.get.Execute(ctx, clerk, s.SessionID)
	require.NoError(t, err)
	assert.Empty(t, view.Documents)
}

func TestAttachDocument_DeletesOrphanedUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t, clerk)

	// The draft expires between the pre-check and the transaction.
	calls := 0
	base := time.Now().UTC()
	f.attach.now = func() time.Time {
		calls++
		if calls > 1 {
			return base.Add(testTTL + time.Hour)
		}
		return base
	}

	_, err := f.attach.Execute(ctx, clerk, AttachDocumentCommand{
		SessionID: s.SessionID,
		Step:      "parcel-docs",
		File:      &document.File{Name: "a.pdf", Body: strings.NewReader("x")},
	})
	assert.True(t, errors.HasReason(err, errors.ReasonExpired))
	assert.Equal(t, []string{"doc-1"}, f.gateway.deleted)
	assert.Empty(t, f.gateway.stored)
}

func TestRemoveDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t, clerk)

	resp, err := f.attach.Execute(ctx, clerk, AttachDocumentCommand{
		SessionID: s.SessionID,
		Step:      "parcel-docs",
		File:      &document.File{Name: "a.pdf", Body: strings.NewReader("x")},
	})
	require.NoError(t, err)

	err = f.remove.Execute(ctx, other, s.SessionID, "parcel-docs", resp.Handle.ID)
	assert.True(t, errors.HasReason(err, errors.ReasonForbidden))

	require.NoError(t, f.remove.Execute(ctx, clerk, s.SessionID, "parcel-docs", resp.Handle.ID))
	err = f.remove.Execute(ctx, clerk, s.SessionID, "parcel-docs", resp.Handle.ID)
	assert.True(t, errors.IsNotFoundError(err))

	view, err := f.get.Execute(ctx, clerk, s.SessionID)
	require.NoError(t, err)
	assert.Empty(t, view.Documents)
	assert.Contains(t, f.gateway.stored, resp.Handle.ID, "detaching leaves the stored file alone")
}

func TestAbandonSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t, clerk)
	_, err := f.attach.Execute(ctx, clerk, AttachDocumentCommand{
		SessionID: s.SessionID,
		Step:      "parcel-docs",
		File:      &document.File{Name: "a.pdf", Body: strings.NewReader("x")},
	})
	require.NoError(t, err)

	assert.True(t, errors.HasReason(f.abandon.Execute(ctx, other, s.SessionID), errors.ReasonForbidden))
	require.NoError(t, f.abandon.Execute(ctx, clerk, s.SessionID))

	_, err = f.get.Execute(ctx, clerk, s.SessionID)
	assert.True(t, errors.IsNotFoundError(err))

	fresh, created, err := f.create.Execute(ctx, clerk)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, s.SessionID, fresh.SessionID)
}

func TestExpireSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.open(t, clerk)
	theirs := f.open(t, other)

	n, err := f.expire.Execute(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.expire.now = func() time.Time { return time.Now().UTC().Add(testTTL + time.Hour) }
	n, err = f.expire.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, sid := range []string{mine.SessionID, theirs.SessionID} {
		s, err := f.sessions.GetBySessionID(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, registration.StatusExpired, s.Status())
	}
	assert.Equal(t, []string{events.EventSessionExpired, events.EventSessionExpired}, f.recorder.Types())

	n, err = f.expire.Execute(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.save.Execute(ctx, clerk, mine.SessionID, "parcel", parcelBody("BL-1", "OLD_POSSESSION"))
	assert.True(t, errors.HasReason(err, errors.ReasonInvalidState))
}

func TestListSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t, clerk)
	_, err := f.save.Execute(ctx, clerk, s.SessionID, "parcel", parcelBody("BL-1", "OLD_POSSESSION"))
	require.NoError(t, err)
	f.open(t, other)

	resp, err := f.list.Execute(ctx, clerk, dto.ListSessionsRequest{PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, 100, resp.PageSize)
	assert.Equal(t, 1, resp.Page)
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, "BL-1", resp.Sessions[0].UPIN)

	resp, err = f.list.Execute(ctx, clerk, dto.ListSessionsRequest{Status: string(registration.StatusMerged)})
	require.NoError(t, err)
	assert.Empty(t, resp.Sessions)

	_, err = f.list.Execute(ctx, clerk, dto.ListSessionsRequest{Status: "NOPE"})
	assert.True(t, errors.IsValidationError(err))
}

func TestGetSession_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t, clerk)

	_, err := f.get.Execute(ctx, clerk, s.SessionID)
	require.NoError(t, err)
	_, err = f.get.Execute(ctx, admin, s.SessionID)
	require.NoError(t, err)
	_, err = f.get.Execute(ctx, other, s.SessionID)
	assert.True(t, errors.HasReason(err, errors.ReasonForbidden))
}
