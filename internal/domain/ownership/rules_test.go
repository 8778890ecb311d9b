package ownership

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/landreg/cadastre/internal/shared/errors"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func edge(id, ownerID uint, share string) *ParcelOwner {
	return ReconstructParcelOwner(id, 1, ownerID, d(share), time.Now(), true, 1, time.Now(), time.Now())
}

func uintPtr(v uint) *uint { return &v }

func TestValidateShare(t *testing.T) {
	tests := []struct {
		share string
		ok    bool
	}{
		{"1", true},
		{"0.000001", true},
		{"0.5", true},
		{"0", false},
		{"-0.1", false},
		{"1.000001", false},
		{"0.0000001", false},
	}
	for _, tt := range tests {
		t.Run(tt.share, func(t *testing.T) {
			err := ValidateShare(d(tt.share))
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidShare))
			}
		})
	}

	_, err := ParseShare("half")
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidShare))
}

func TestCheckAllocation_ExactCeiling(t *testing.T) {
	edges := []*ParcelOwner{edge(1, 10, "0.333333"), edge(2, 11, "0.333333")}

	assert.NoError(t, CheckAllocation(edges, d("0.333334")))
	err := CheckAllocation(edges, d("0.333335"))
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonOverAllocation))
}

func TestPlanInitial(t *testing.T) {
	edges := []*ParcelOwner{edge(1, 10, "0.6")}

	_, err := PlanInitial(1, edges, 10, d("0.1"), time.Now())
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonDuplicateOwnership))

	_, err = PlanInitial(1, edges, 11, d("0.5"), time.Now())
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonOverAllocation))

	created, err := PlanInitial(1, edges, 11, d("0.4"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, uint(11), created.OwnerID())
	assert.True(t, created.Share().Equal(d("0.4")))
}

func TestPlanTransfer_InsufficientShare(t *testing.T) {
	x := edge(1, 10, "0.6")
	_, err := PlanTransfer(1, []*ParcelOwner{x}, uintPtr(10), 20, d("0.7"), time.Now())

	assert.True(t, apperrors.HasReason(err, apperrors.ReasonInsufficientShare))
	assert.True(t, x.Share().Equal(d("0.6")), "failed plan must not mutate edges")
}

func TestPlanTransfer_FullMoveClosesSource(t *testing.T) {
	x := edge(1, 10, "0.6")
	plan, err := PlanTransfer(1, []*ParcelOwner{x}, uintPtr(10), 20, d("0.6"), time.Now())
	require.NoError(t, err)

	assert.True(t, plan.FromClosed)
	assert.False(t, x.IsActive())
	assert.True(t, plan.ToCreated)
	assert.True(t, plan.To.Share().Equal(d("0.6")))
	assert.True(t, AllocatedTotal([]*ParcelOwner{x, plan.To}).Equal(d("0.6")))
}

func TestPlanTransfer_PartialIntoExistingEdge(t *testing.T) {
	x := edge(1, 10, "0.5")
	y := edge(2, 20, "0.25")
	plan, err := PlanTransfer(1, []*ParcelOwner{x, y}, uintPtr(10), 20, d("0.2"), time.Now())
	require.NoError(t, err)

	assert.False(t, plan.ToCreated)
	assert.Same(t, y, plan.To)
	assert.True(t, x.Share().Equal(d("0.3")))
	assert.True(t, y.Share().Equal(d("0.45")))
}

func TestPlanTransfer_FromPool(t *testing.T) {
	edges := []*ParcelOwner{edge(1, 10, "0.6")}

	_, err := PlanTransfer(1, edges, nil, 20, d("0.5"), time.Now())
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonOverAllocation))

	plan, err := PlanTransfer(1, edges, nil, 20, d("0.4"), time.Now())
	require.NoError(t, err)
	assert.Nil(t, plan.From)
	assert.True(t, plan.ToCreated)
}

func TestPlanTransfer_SameOwner(t *testing.T) {
	_, err := PlanTransfer(1, []*ParcelOwner{edge(1, 10, "1")}, uintPtr(10), 10, d("0.1"), time.Now())
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidPayload))
}

func TestPlanShareUpdate(t *testing.T) {
	x := edge(1, 10, "0.5")
	y := edge(2, 20, "0.3")
	edges := []*ParcelOwner{x, y}

	err := PlanShareUpdate(edges, y, d("0.6"), time.Now())
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonOverAllocation))
	assert.True(t, y.Share().Equal(d("0.3")))

	require.NoError(t, PlanShareUpdate(edges, y, d("0.5"), time.Now()))
	assert.True(t, AllocatedTotal(edges).Equal(FullShare))
	assert.Equal(t, 2, y.Version())
}

func TestReplicateTo_SkipsInactive(t *testing.T) {
	closed := ReconstructParcelOwner(3, 1, 30, decimal.Zero, time.Now(), false, 2, time.Now(), time.Now())
	copies := ReplicateTo([]*ParcelOwner{edge(1, 10, "0.6"), edge(2, 20, "0.4"), closed}, 99)

	require.Len(t, copies, 2)
	for _, c := range copies {
		assert.Equal(t, uint(99), c.ParcelID())
		assert.Zero(t, c.ID())
	}
	assert.True(t, AllocatedTotal(copies).Equal(FullShare))
}

type countingLocker struct {
	mu       sync.Mutex
	acquired []string
	fail     string
}

func (l *countingLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if key == l.fail {
		return nil, errors.New("lock busy")
	}
	l.acquired = append(l.acquired, key)
	return func() {}, nil
}

func TestWithParcelLocks_SortedAndReentrant(t *testing.T) {
	l := &countingLocker{}

	err := WithParcelLocks(context.Background(), l, []string{"B", "A", "B"}, func(ctx context.Context) error {
		return WithParcelLocks(ctx, l, []string{"A", "C"}, func(context.Context) error { return nil })
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"parcel:A", "parcel:B", "parcel:C"}, l.acquired)
}

func TestWithParcelLocks_AcquireError(t *testing.T) {
	l := &countingLocker{fail: "parcel:B"}
	called := false

	err := WithParcelLocks(context.Background(), l, []string{"A", "B"}, func(context.Context) error {
		called = true
		return nil
	})

	assert.Error(t, err)
	assert.False(t, called)
}
