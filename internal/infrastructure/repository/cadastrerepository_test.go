package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landreg/cadastre/internal/domain/approval"
	"github.com/landreg/cadastre/internal/domain/document"
	"github.com/landreg/cadastre/internal/domain/owner"
	"github.com/landreg/cadastre/internal/domain/ownership"
	"github.com/landreg/cadastre/internal/domain/parcel"
	"github.com/landreg/cadastre/internal/domain/registration"
	"github.com/landreg/cadastre/internal/infrastructure/testutil"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/query"
)

func newParcel(t *testing.T, upin string) *parcel.Parcel {
	t.Helper()
	p, err := parcel.NewParcel(upin, "F-"+upin,
		parcel.Location{SubCity: "Bole", Wereda: "03"},
		decimal.RequireFromString("500.25"), "RESIDENTIAL", parcel.TenureOldPossession,
		parcel.Boundary{North: "road", Geometry: []byte(`{"type":"Point","coordinates":[38.7,9.0]}`)})
	require.NoError(t, err)
	return p
}

func TestParcelRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewParcelRepository(testutil.NewDB(t))

	p := newParcel(t, "BL-001")
	require.NoError(t, repo.Create(ctx, p))
	assert.NotZero(t, p.ID())

	err := repo.Create(ctx, newParcel(t, "BL-001"))
	assert.True(t, errors.HasReason(err, errors.ReasonDuplicateUPIN))

	loaded, err := repo.GetByUPINForUpdate(ctx, "BL-001")
	require.NoError(t, err)
	assert.True(t, loaded.TotalArea().Equal(decimal.RequireFromString("500.25")))
	assert.Equal(t, "road", loaded.Boundary().North)
	assert.JSONEq(t, `{"type":"Point","coordinates":[38.7,9.0]}`, string(loaded.Boundary().Geometry))

	existing, err := repo.ExistingUPINs(ctx, []string{"BL-001", "BL-002"})
	require.NoError(t, err)
	assert.Equal(t, []string{"BL-001"}, existing)

	stale, err := repo.GetByUPIN(ctx, "BL-001")
	require.NoError(t, err)

	require.NoError(t, loaded.Retire(time.Now().UTC()))
	require.NoError(t, repo.Update(ctx, loaded))

	require.NoError(t, stale.Retire(time.Now().UTC()))
	err = repo.Update(ctx, stale)
	assert.True(t, errors.HasReason(err, errors.ReasonVersionConflict))

	_, err = repo.GetByUPIN(ctx, "missing")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestOwnershipRepository_ActiveEdgesAndHistory(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	parcels := NewParcelRepository(gdb)
	owners := NewOwnerRepository(gdb)
	edges := NewOwnershipRepository(gdb)
	history := NewTransferHistoryRepository(gdb)

	p := newParcel(t, "BL-010")
	require.NoError(t, parcels.Create(ctx, p))

	x, err := owner.NewOwner("Abebe Kebede", "ET-1", "+251911000001", "")
	require.NoError(t, err)
	require.NoError(t, owners.Create(ctx, x))
	y, err := owner.NewOwner("Sara Tesfaye", "ET-2", "+251911000002", "TIN-9")
	require.NoError(t, err)
	require.NoError(t, owners.Create(ctx, y))

	dup, err := owner.NewOwner("Someone Else", "ET-1", "+251911000003", "")
	require.NoError(t, err)
	assert.True(t, errors.IsConflictError(owners.Create(ctx, dup)))

	found, err := owners.GetByNationalID(ctx, "ET-2")
	require.NoError(t, err)
	assert.Equal(t, y.ID(), found.ID())
	none, err := owners.GetByNationalID(ctx, "ET-404")
	require.NoError(t, err)
	assert.Nil(t, none)

	e, err := ownership.NewParcelOwner(p.ID(), x.ID(), decimal.RequireFromString("0.6"), time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, edges.Create(ctx, e))

	active, err := edges.ListActiveByParcel(ctx, p.ID())
	require.NoError(t, err)
	plan, err := ownership.PlanTransfer(p.ID(), active, uintPtr(x.ID()), y.ID(), decimal.RequireFromString("0.6"), time.Now().UTC())
	require.NoError(t, err)
	require.True(t, plan.FromClosed)
	require.NoError(t, edges.Update(ctx, plan.From))
	require.NoError(t, edges.Create(ctx, plan.To))

	active, err = edges.ListActiveByParcel(ctx, p.ID())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, y.ID(), active[0].OwnerID())
	assert.True(t, active[0].Share().Equal(decimal.RequireFromString("0.6")))

	price := decimal.RequireFromString("1500000.00")
	require.NoError(t, history.Append(ctx, &ownership.TransferHistory{
		ParcelID: p.ID(), ToOwnerID: x.ID(), Share: decimal.RequireFromString("0.6"),
		TransferType: ownership.TransferInitial, TransferredAt: time.Now().UTC(),
	}))
	require.NoError(t, history.Append(ctx, &ownership.TransferHistory{
		ParcelID: p.ID(), FromOwnerID: uintPtr(x.ID()), ToOwnerID: y.ID(), Share: decimal.RequireFromString("0.6"),
		TransferType: ownership.TransferSale, Price: &price, Reference: "SALE-1", TransferredAt: time.Now().UTC(),
	}))

	rows, err := history.ListByParcel(ctx, p.ID())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Nil(t, rows[0].FromOwnerID)
	require.NotNil(t, rows[1].Price)
	assert.True(t, rows[1].Price.Equal(price))
}

func TestRegistrationSessionRepository_OneOpenDraft(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := NewRegistrationSessionRepository(gdb)
	docs := NewSessionDocumentRepository(gdb)
	now := time.Now().UTC()

	old, err := registration.NewSession("rs_old", 5, "BOLE", time.Hour, now.Add(-3*time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, old))

	second, err := registration.NewSession("rs_second", 5, "BOLE", time.Hour, now)
	require.NoError(t, err)
	assert.True(t, errors.IsConflictError(repo.Create(ctx, second)))

	expired, err := repo.ListExpiredDrafts(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.NoError(t, expired[0].Expire(now))
	require.NoError(t, repo.Update(ctx, expired[0]))

	fresh, err := registration.NewSession("rs_fresh", 5, "BOLE", time.Hour, now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, fresh))

	open, err := repo.FindOpenDraft(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "rs_fresh", open.SessionID())

	sessions, total, err := repo.ListByUser(ctx, 5, registration.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, sessions, 2)

	page2, total, err := repo.ListByUser(ctx, 5, registration.ListFilter{PageFilter: query.NewPageFilter(2, 1)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page2, 1)
	assert.Equal(t, sessions[1].SessionID(), page2[0].SessionID())

	h := document.Handle{ID: "doc-1", URL: "https://files.example.gov/doc-1.pdf", Name: "deed.pdf", UploadedAt: now}
	added, err := docs.Add(ctx, fresh.ID(), registration.StepParcelDocs, h)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = docs.Add(ctx, fresh.ID(), registration.StepParcelDocs, h)
	require.NoError(t, err)
	assert.False(t, added)

	reloaded, err := repo.GetBySessionID(ctx, "rs_fresh")
	require.NoError(t, err)
	require.Len(t, reloaded.Documents(registration.StepParcelDocs), 1)
	assert.Equal(t, "deed.pdf", reloaded.Documents(registration.StepParcelDocs)[0].Name)

	removed, err := docs.Remove(ctx, fresh.ID(), registration.StepParcelDocs, "doc-1")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = docs.Remove(ctx, fresh.ID(), registration.StepParcelDocs, "doc-1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRegistrationSessionRepository_VersionConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewRegistrationSessionRepository(testutil.NewDB(t))
	now := time.Now().UTC()

	s, err := registration.NewSession("rs_v", 6, "BOLE", time.Hour, now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, s))

	a, err := repo.GetBySessionID(ctx, "rs_v")
	require.NoError(t, err)
	b, err := repo.GetBySessionID(ctx, "rs_v")
	require.NoError(t, err)

	payload := registration.ParcelData{UPIN: "BL-1", TenureType: parcel.TenureOldPossession, TotalAreaM2: decimal.NewFromInt(10)}
	require.NoError(t, a.SaveStep(registration.StepParcel, payload, time.Hour, now))
	require.NoError(t, repo.Update(ctx, a))

	require.NoError(t, b.SaveStep(registration.StepParcel, payload, time.Hour, now))
	err = repo.Update(ctx, b)
	assert.True(t, errors.HasReason(err, errors.ReasonVersionConflict))

	saved, err := repo.GetBySessionID(ctx, "rs_v")
	require.NoError(t, err)
	require.NotNil(t, saved.ParcelData())
	assert.Equal(t, "BL-1", saved.ParcelData().UPIN)
	assert.Equal(t, 2, saved.Version())
}

func TestApprovalRequestRepository_OnePendingPerSession(t *testing.T) {
	ctx := context.Background()
	repo := NewApprovalRequestRepository(testutil.NewDB(t))
	now := time.Now().UTC()
	maker := authorization.Actor{UserID: 1, Role: authorization.RoleSubcityNormal, SubAuthority: "BOLE"}
	checker := authorization.Actor{UserID: 2, Role: authorization.RoleSubcityApprover, SubAuthority: "BOLE"}

	first, err := approval.NewRequest("ar_1", approval.ActionRegisterParcel, "rs_1", "rs_1", maker,
		authorization.RoleSubcityApprover, map[string]string{"upin": "BL-1"}, now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	again, err := approval.NewRequest("ar_2", approval.ActionRegisterParcel, "rs_1", "rs_1", maker,
		authorization.RoleSubcityApprover, map[string]string{"upin": "BL-1"}, now)
	require.NoError(t, err)
	assert.True(t, errors.HasReason(repo.Create(ctx, again), errors.ReasonDuplicateRequest))

	// direct actions carry no session and never collide
	for _, rid := range []string{"ar_3", "ar_4"} {
		direct, err := approval.NewRequest(rid, approval.ActionTransferOwnership, "BL-9", "", maker,
			authorization.RoleSubcityApprover, map[string]string{"upin": "BL-9"}, now)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, direct))
	}

	pending, total, err := repo.ListPending(ctx, approval.ListFilter{
		ApproverRoles: []string{authorization.RoleSubcityApprover.String()},
		SubAuthority:  "BOLE",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, pending, 3)

	a, err := repo.GetByRequestID(ctx, "ar_1")
	require.NoError(t, err)
	b, err := repo.GetByRequestID(ctx, "ar_1")
	require.NoError(t, err)

	require.NoError(t, a.Reject(checker, "boundary unclear", now))
	require.NoError(t, repo.Update(ctx, a))

	require.NoError(t, b.Approve(checker, now))
	assert.True(t, errors.HasReason(repo.Update(ctx, b), errors.ReasonInvalidState))

	none, err := repo.FindPendingBySession(ctx, "rs_1")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, repo.Create(ctx, again))
	history, err := repo.ListBySession(ctx, "rs_1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func uintPtr(v uint) *uint { return &v }
