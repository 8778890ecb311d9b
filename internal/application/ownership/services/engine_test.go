package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landreg/cadastre/internal/domain/ownership"
	"github.com/landreg/cadastre/internal/domain/parcel"
	"github.com/landreg/cadastre/internal/domain/registration"
	"github.com/landreg/cadastre/internal/infrastructure/cache"
	"github.com/landreg/cadastre/internal/infrastructure/repository"
	"github.com/landreg/cadastre/internal/infrastructure/testutil"
	"github.com/landreg/cadastre/internal/shared/db"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/logger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	gdb := testutil.NewDB(t)
	stores := Stores{
		Parcels:      repository.NewParcelRepository(gdb),
		Owners:       repository.NewOwnerRepository(gdb),
		Edges:        repository.NewOwnershipRepository(gdb),
		History:      repository.NewTransferHistoryRepository(gdb),
		Encumbrances: repository.NewEncumbranceRepository(gdb),
		Leases:       repository.NewLeaseRepository(gdb),
	}
	return NewEngine(db.NewTransactionManager(gdb), cache.NewMemoryParcelLocker(5*time.Second), stores, logger.NewNopLogger())
}

func registerCmd(upin, area, nationalID, share string) RegisterParcelCommand {
	return RegisterParcelCommand{
		Parcel: registration.ParcelData{
			UPIN:        upin,
			FileNumber:  "F-" + upin,
			SubCity:     "Bole",
			Wereda:      "03",
			TotalAreaM2: d(area),
			LandUse:     "RESIDENTIAL",
			TenureType:  parcel.TenureOldPossession,
		},
		Owner: registration.OwnerData{
			FullName:    "Abebe Kebede",
			NationalID:  nationalID,
			PhoneNumber: "+251911000000",
			ShareRatio:  d(share),
		},
	}
}

func person(name, nationalID string) OwnerRef {
	return OwnerRef{FullName: name, NationalID: nationalID, PhoneNumber: "+251911111111"}
}

func TestEngine_RegisterParcel(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	result, err := engine.RegisterParcel(ctx, registerCmd("BL-100", "1000", "NID-1", "0.6"))
	require.NoError(t, err)
	assert.NotZero(t, result.Parcel.ID())
	assert.NotZero(t, result.OwnerID)
	assert.True(t, result.Ownership.Share().Equal(d("0.6")))
	assert.Nil(t, result.Lease)

	view, err := engine.ListOwnership(ctx, "BL-100")
	require.NoError(t, err)
	require.Len(t, view.Owners, 1)
	assert.Equal(t, "Abebe Kebede", view.Owners[0].FullName)
	assert.True(t, view.Unallocated.Equal(d("0.4")))

	history, err := engine.ListTransferHistory(ctx, "BL-100")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, string(ownership.TransferInitial), history[0].TransferType)
	assert.Nil(t, history[0].FromOwnerID)

	_, err = engine.RegisterParcel(ctx, registerCmd("BL-100", "1000", "NID-2", "1"))
	assert.True(t, errors.HasReason(err, errors.ReasonDuplicateUPIN))

	// The same national id resolves to the registered owner.
	again, err := engine.RegisterParcel(ctx, registerCmd("BL-101", "200", "NID-1", "1"))
	require.NoError(t, err)
	assert.Equal(t, result.OwnerID, again.OwnerID)
}

func TestEngine_RegisterParcel_Lease(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	cmd := registerCmd("LS-1", "400", "NID-9", "1")
	cmd.Parcel.TenureType = parcel.TenureLease
	_, err := engine.RegisterParcel(ctx, cmd)
	assert.True(t, errors.HasReason(err, errors.ReasonInvalidPayload))

	cmd.Lease = &registration.LeaseData{
		LeasedAreaM2:     d("400"),
		TotalLeaseAmount: d("100000"),
		DownPayment:      d("10000"),
		StartDate:        "2024-01-01",
		ExpiryDate:       "2074-01-01",
	}
	result, err := engine.RegisterParcel(ctx, cmd)
	require.NoError(t, err)
	require.NotNil(t, result.Lease)
	assert.NotZero(t, result.Lease.ID)
	assert.Equal(t, 2074, result.Lease.ExpiryDate.Year())
}

func TestEngine_RegisterParcel_ConflictingOwnerName(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	_, err := engine.RegisterParcel(ctx, registerCmd("BL-1", "100", "NID-1", "1"))
	require.NoError(t, err)

	cmd := registerCmd("BL-2", "100", "NID-1", "1")
	cmd.Owner.FullName = "Someone Else"
	_, err = engine.RegisterParcel(ctx, cmd)
	assert.True(t, errors.IsConflictError(err))

	// Nothing from the failed registration survives.
	_, err = engine.GetParcel(ctx, "BL-2")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestEngine_CreateInitialOwnership(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	_, err := engine.RegisterParcel(ctx, registerCmd("BL-1", "1000", "NID-1", "0.5"))
	require.NoError(t, err)

	second, err := engine.CreateInitialOwnership(ctx, LinkOwnerCommand{UPIN: "BL-1", Owner: person("Sara Tesfaye", "NID-2"), Share: d("0.3")})
	require.NoError(t, err)
	assert.True(t, second.Share().Equal(d("0.3")))

	_, err = engine.CreateInitialOwnership(ctx, LinkOwnerCommand{UPIN: "BL-1", Owner: person("Hana Girma", "NID-3"), Share: d("0.3")})
	assert.True(t, errors.HasReason(err, errors.ReasonOverAllocation))

	_, err = engine.CreateInitialOwnership(ctx, LinkOwnerCommand{UPIN: "BL-1", Owner: person("Sara Tesfaye", "NID-2"), Share: d("0.1")})
	assert.True(t, errors.HasReason(err, errors.ReasonDuplicateOwnership))

	_, err = engine.CreateInitialOwnership(ctx, LinkOwnerCommand{UPIN: "BL-1", Owner: person("Hana Girma", "NID-3"), Share: d("0")})
	assert.True(t, errors.HasReason(err, errors.ReasonInvalidShare))

	_, err = engine.CreateInitialOwnership(ctx, LinkOwnerCommand{UPIN: "NOPE", Owner: person("Hana Girma", "NID-3"), Share: d("0.1")})
	assert.True(t, errors.IsNotFoundError(err))

	view, err := engine.ListOwnership(ctx, "BL-1")
	require.NoError(t, err)
	assert.Len(t, view.Owners, 2)
	assert.True(t, view.Allocated.Equal(d("0.8")))
}

func TestEngine_TransferOwnership(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	reg, err := engine.RegisterParcel(ctx, registerCmd("BL-1", "1000", "NID-1", "1"))
	require.NoError(t, err)
	seller := reg.OwnerID

	price := d("250000")
	result, err := engine.TransferOwnership(ctx, TransferCommand{
		UPIN:         "BL-1",
		FromOwnerID:  &seller,
		To:           person("Sara Tesfaye", "NID-2"),
		Share:        d("0.25"),
		TransferType: ownership.TransferSale,
		Price:        &price,
		Reference:    "CONTRACT-7",
	})
	require.NoError(t, err)
	assert.True(t, result.From.Share().Equal(d("0.75")))
	assert.True(t, result.To.Share().Equal(d("0.25")))

	_, err = engine.TransferOwnership(ctx, TransferCommand{
		UPIN:         "BL-1",
		FromOwnerID:  &seller,
		To:           person("Sara Tesfaye", "NID-2"),
		Share:        d("0.8"),
		TransferType: ownership.TransferGift,
	})
	assert.True(t, errors.HasReason(err, errors.ReasonInsufficientShare))

	// Moving the rest closes the seller's edge.
	result, err = engine.TransferOwnership(ctx, TransferCommand{
		UPIN:         "BL-1",
		FromOwnerID:  &seller,
		To:           person("Sara Tesfaye", "NID-2"),
		Share:        d("0.75"),
		TransferType: ownership.TransferHeredity,
	})
	require.NoError(t, err)
	assert.False(t, result.From.IsActive())
	assert.True(t, result.To.Share().Equal(d("1")))

	view, err := engine.ListOwnership(ctx, "BL-1")
	require.NoError(t, err)
	require.Len(t, view.Owners, 1)
	assert.Equal(t, "NID-2", view.Owners[0].NationalID)

	history, err := engine.ListTransferHistory(ctx, "BL-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.NotNil(t, history[1].Price)
	assert.True(t, history[1].Price.Equal(price))
	assert.Equal(t, "CONTRACT-7", history[1].Reference)

	_, err = engine.TransferOwnership(ctx, TransferCommand{
		UPIN:         "BL-1",
		To:           person("Hana Girma", "NID-3"),
		Share:        d("0.1"),
		TransferType: ownership.TransferInitial,
	})
	assert.True(t, errors.HasReason(err, errors.ReasonInvalidPayload))
}

func TestEngine_SubdivideParcel(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	reg, err := engine.RegisterParcel(ctx, registerCmd("BL-1", "1000", "NID-1", "0.6"))
	require.NoError(t, err)
	_, err = engine.CreateInitialOwnership(ctx, LinkOwnerCommand{UPIN: "BL-1", Owner: person("Sara Tesfaye", "NID-2"), Share: d("0.4")})
	require.NoError(t, err)

	_, err = engine.SubdivideParcel(ctx, SubdivideCommand{
		ParentUPIN: "BL-1",
		Children: []ChildParcel{
			{UPIN: "BL-1-A", AreaM2: d("600")},
			{UPIN: "BL-1-B", AreaM2: d("400.2")},
		},
	})
	assert.True(t, errors.HasReason(err, errors.ReasonAreaExceeded))

	result, err := engine.SubdivideParcel(ctx, SubdivideCommand{
		ParentUPIN: "BL-1",
		Children: []ChildParcel{
			{UPIN: "BL-1-A", AreaM2: d("600"), ParcelNumber: "12/A", BoundaryNorth: "river"},
			{UPIN: "BL-1-B", AreaM2: d("400.05"), ParcelNumber: "12/B", Kebele: "07"},
		},
	})
	require.NoError(t, err)
	assert.False(t, result.Parent.IsActive())
	require.Len(t, result.Children, 2)
	assert.Equal(t, "BL-1", result.Children[0].ParentUPIN())
	assert.Equal(t, parcel.Location{SubCity: "Bole", Wereda: "03", ParcelNumber: "12/A"}, result.Children[0].Location())
	assert.Equal(t, parcel.Location{SubCity: "Bole", Wereda: "03", Kebele: "07", ParcelNumber: "12/B"}, result.Children[1].Location())
	assert.Equal(t, "river", result.Children[0].Boundary().North)

	for _, upin := range []string{"BL-1-A", "BL-1-B"} {
		view, err := engine.ListOwnership(ctx, upin)
		require.NoError(t, err)
		require.Len(t, view.Owners, 2)
		assert.True(t, view.Allocated.Equal(d("1")))
		for _, o := range view.Owners {
			if o.OwnerID == reg.OwnerID {
				assert.True(t, o.ShareRatio.Equal(d("0.6")))
			}
		}
	}

	parent, err := engine.GetParcel(ctx, "BL-1")
	require.NoError(t, err)
	assert.Equal(t, string(parcel.StatusRetired), parent.Status)

	_, err = engine.CreateInitialOwnership(ctx, LinkOwnerCommand{UPIN: "BL-1", Owner: person("Hana Girma", "NID-3"), Share: d("0.1")})
	assert.True(t, errors.HasReason(err, errors.ReasonInvalidState))

	_, err = engine.SubdivideParcel(ctx, SubdivideCommand{
		ParentUPIN: "BL-1",
		Children:   []ChildParcel{{UPIN: "BL-1-C", AreaM2: d("1")}, {UPIN: "BL-1-D", AreaM2: d("1")}},
	})
	assert.True(t, errors.HasReason(err, errors.ReasonInvalidState))
}

func TestEngine_SubdivideParcel_TrimsParentUPIN(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	_, err := engine.RegisterParcel(ctx, registerCmd("BL-1", "1000", "NID-1", "1"))
	require.NoError(t, err)

	_, err = engine.SubdivideParcel(ctx, SubdivideCommand{
		ParentUPIN: " BL-1 ",
		Children:   []ChildParcel{{UPIN: "BL-1", AreaM2: d("500")}, {UPIN: "BL-1-B", AreaM2: d("500")}},
	})
	assert.True(t, errors.HasReason(err, errors.ReasonDuplicateChildUPIN))

	cmd := SubdivideCommand{
		ParentUPIN: " BL-1 ",
		Children:   []ChildParcel{{UPIN: "BL-1-A ", AreaM2: d("500")}, {UPIN: "BL-1-B", AreaM2: d("500")}},
	}
	assert.Equal(t, []string{"BL-1", "BL-1-A", "BL-1-B"}, cmd.UPINs())

	result, err := engine.SubdivideParcel(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, "BL-1", result.Parent.UPIN())
	assert.False(t, result.Parent.IsActive())
}

func TestEngine_SubdivideParcel_DuplicateChild(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	_, err := engine.RegisterParcel(ctx, registerCmd("BL-1", "1000", "NID-1", "1"))
	require.NoError(t, err)
	_, err = engine.RegisterParcel(ctx, registerCmd("BL-9", "10", "NID-1", "1"))
	require.NoError(t, err)

	_, err = engine.SubdivideParcel(ctx, SubdivideCommand{
		ParentUPIN: "BL-1",
		Children:   []ChildParcel{{UPIN: "BL-1-A", AreaM2: d("500")}, {UPIN: "BL-9", AreaM2: d("500")}},
	})
	assert.True(t, errors.HasReason(err, errors.ReasonDuplicateChildUPIN))

	_, err = engine.SubdivideParcel(ctx, SubdivideCommand{
		ParentUPIN: "BL-1",
		Children:   []ChildParcel{{UPIN: "BL-1-A", AreaM2: d("500")}, {UPIN: "BL-1-A", AreaM2: d("500")}},
	})
	assert.True(t, errors.HasReason(err, errors.ReasonDuplicateChildUPIN))

	parent, err := engine.GetParcel(ctx, "BL-1")
	require.NoError(t, err)
	assert.Equal(t, string(parcel.StatusActive), parent.Status)
	_, err = engine.GetParcel(ctx, "BL-1-A")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestEngine_UpdateShare(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	reg, err := engine.RegisterParcel(ctx, registerCmd("BL-1", "1000", "NID-1", "0.5"))
	require.NoError(t, err)
	_, err = engine.CreateInitialOwnership(ctx, LinkOwnerCommand{UPIN: "BL-1", Owner: person("Sara Tesfaye", "NID-2"), Share: d("0.3")})
	require.NoError(t, err)

	_, err = engine.UpdateShare(ctx, UpdateShareCommand{OwnershipID: reg.Ownership.ID(), Share: d("0.71")})
	assert.True(t, errors.HasReason(err, errors.ReasonOverAllocation))

	updated, err := engine.UpdateShare(ctx, UpdateShareCommand{OwnershipID: reg.Ownership.ID(), Share: d("0.7")})
	require.NoError(t, err)
	assert.True(t, updated.Share().Equal(d("0.7")))

	history, err := engine.ListTransferHistory(ctx, "BL-1")
	require.NoError(t, err)
	last := history[len(history)-1]
	assert.Equal(t, string(ownership.TransferAdjustment), last.TransferType)
	assert.Equal(t, "previous share 0.5", last.Reference)

	_, err = engine.UpdateShare(ctx, UpdateShareCommand{OwnershipID: 999, Share: d("0.1")})
	assert.True(t, errors.IsNotFoundError(err))
}

func TestEngine_Encumbrances(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	_, err := engine.RegisterParcel(ctx, registerCmd("BL-1", "1000", "NID-1", "1"))
	require.NoError(t, err)

	enc, err := engine.RegisterEncumbrance(ctx, EncumbranceCommand{
		UPIN:            "BL-1",
		Type:            parcel.EncumbranceMortgage,
		IssuingEntity:   "Commercial Bank",
		ReferenceNumber: "MTG-1",
	})
	require.NoError(t, err)
	assert.NotZero(t, enc.ID())

	released, err := engine.ReleaseEncumbrance(ctx, enc.ID())
	require.NoError(t, err)
	assert.NotNil(t, released.ReleasedAt())

	_, err = engine.ReleaseEncumbrance(ctx, enc.ID())
	assert.True(t, errors.HasReason(err, errors.ReasonInvalidState))

	list, err := engine.ListEncumbrances(ctx, "BL-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, string(parcel.EncumbranceReleased), list[0].Status)

	_, err = engine.RegisterEncumbrance(ctx, EncumbranceCommand{UPIN: "BL-1", Type: "LIEN?", IssuingEntity: "x"})
	assert.True(t, errors.HasReason(err, errors.ReasonInvalidPayload))
}

func TestEngine_ConcurrentAllocationsNeverExceedWhole(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	_, err := engine.RegisterParcel(ctx, registerCmd("BL-1", "1000", "NID-0", "0.1"))
	require.NoError(t, err)

	const workers = 6
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			nid := "NID-C" + string(rune('A'+i))
			_, results[i] = engine.CreateInitialOwnership(ctx, LinkOwnerCommand{
				UPIN:  "BL-1",
				Owner: person("Owner "+nid, nid),
				Share: d("0.5"),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.HasReason(err, errors.ReasonOverAllocation), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	view, err := engine.ListOwnership(ctx, "BL-1")
	require.NoError(t, err)
	assert.True(t, view.Allocated.Equal(d("0.6")))
}

func TestScenario_SubdivisionAreaAndInheritance(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	reg, err := engine.RegisterParcel(ctx, registerCmd("P-1", "1000", "NID-1", "1"))
	require.NoError(t, err)

	_, err = engine.SubdivideParcel(ctx, SubdivideCommand{
		ParentUPIN: "P-1",
		Children:   []ChildParcel{{UPIN: "P-1-1", AreaM2: d("600")}, {UPIN: "P-1-2", AreaM2: d("500")}},
	})
	assert.True(t, errors.HasReason(err, errors.ReasonAreaExceeded))

	_, err = engine.SubdivideParcel(ctx, SubdivideCommand{
		ParentUPIN: "P-1",
		Children:   []ChildParcel{{UPIN: "P-1-1", AreaM2: d("600")}, {UPIN: "P-1-2", AreaM2: d("400")}},
	})
	require.NoError(t, err)

	for _, upin := range []string{"P-1-1", "P-1-2"} {
		view, err := engine.ListOwnership(ctx, upin)
		require.NoError(t, err)
		require.Len(t, view.Owners, 1)
		assert.Equal(t, reg.OwnerID, view.Owners[0].OwnerID)
		assert.True(t, view.Owners[0].ShareRatio.Equal(d("1")))
	}
}

func TestScenario_TransferWholeHolding(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	reg, err := engine.RegisterParcel(ctx, registerCmd("P-1", "1000", "NID-X", "0.6"))
	require.NoError(t, err)
	x := reg.OwnerID
	y := person("Yonas Alemu", "NID-Y")

	_, err = engine.TransferOwnership(ctx, TransferCommand{UPIN: "P-1", FromOwnerID: &x, To: y, Share: d("0.7"), TransferType: ownership.TransferSale})
	assert.True(t, errors.HasReason(err, errors.ReasonInsufficientShare))

	before, err := engine.ListTransferHistory(ctx, "P-1")
	require.NoError(t, err)

	result, err := engine.TransferOwnership(ctx, TransferCommand{UPIN: "P-1", FromOwnerID: &x, To: y, Share: d("0.6"), TransferType: ownership.TransferSale})
	require.NoError(t, err)
	assert.False(t, result.From.IsActive())
	assert.True(t, result.To.Share().Equal(d("0.6")))

	view, err := engine.ListOwnership(ctx, "P-1")
	require.NoError(t, err)
	require.Len(t, view.Owners, 1)
	assert.Equal(t, "NID-Y", view.Owners[0].NationalID)

	after, err := engine.ListTransferHistory(ctx, "P-1")
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)
}

func TestScenario_ConcurrentTransfersOfLastShare(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	_, err := engine.RegisterParcel(ctx, registerCmd("P-1", "1000", "NID-0", "0.6"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, nid := range []string{"NID-A", "NID-B"} {
		wg.Add(1)
		go func(i int, nid string) {
			defer wg.Done()
			_, results[i] = engine.TransferOwnership(ctx, TransferCommand{
				UPIN:         "P-1",
				To:           person("Owner "+nid, nid),
				Share:        d("0.4"),
				TransferType: ownership.TransferConversion,
			})
		}(i, nid)
	}
	wg.Wait()

	failures := 0
	for _, err := range results {
		if err != nil {
			failures++
			assert.True(t, errors.HasReason(err, errors.ReasonOverAllocation), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, failures)

	view, err := engine.ListOwnership(ctx, "P-1")
	require.NoError(t, err)
	assert.True(t, view.Allocated.Equal(d("1")))
	assert.Len(t, view.Owners, 2)
}
