package parcel

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	approvaldto "github.com/landreg/cadastre/internal/application/approval/dto"
	"github.com/landreg/cadastre/internal/application/approval/usecases"
	"github.com/landreg/cadastre/internal/application/ownership/dto"
	"github.com/landreg/cadastre/internal/application/ownership/services"
	"github.com/landreg/cadastre/internal/interfaces/http/handlers/testutil"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/errors"
)

var clerk = authorization.Actor{UserID: 10, Role: authorization.RoleSubcityNormal, SubAuthority: "BOLE"}

type mockRegistry struct {
	err error
}

func (m *mockRegistry) GetParcel(ctx context.Context, upin string) (*dto.ParcelResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ParcelResponse{UPIN: upin}, nil
}

func (m *mockRegistry) ListOwnership(ctx context.Context, upin string) (*dto.ParcelOwnershipResponse, error) {
	return &dto.ParcelOwnershipResponse{}, m.err
}

func (m *mockRegistry) ListTransferHistory(ctx context.Context, upin string) ([]*dto.TransferHistoryResponse, error) {
	return nil, m.err
}

func (m *mockRegistry) ListEncumbrances(ctx context.Context, upin string) ([]*dto.EncumbranceResponse, error) {
	return nil, m.err
}

type mockGate struct {
	cmd    usecases.Command
	parked bool
	err    error
}

func (m *mockGate) Execute(ctx context.Context, actor authorization.Actor, cmd usecases.Command) (*approvaldto.GatedResponse, error) {
	m.cmd = cmd
	if m.err != nil {
		return nil, m.err
	}
	if m.parked {
		return &approvaldto.GatedResponse{RequiresApproval: true, ApprovalRequestID: "ar_1"}, nil
	}
	return &approvaldto.GatedResponse{Result: "ok"}, nil
}

func TestHandler_GetParcel(t *testing.T) {
	tests := []struct {
		name     string
		upin     string
		registry *mockRegistry
		wantCode int
	}{
		{name: "found", upin: "AA-01-0001", registry: &mockRegistry{}, wantCode: http.StatusOK},
		{name: "blank upin", upin: "  ", registry: &mockRegistry{}, wantCode: http.StatusBadRequest},
		{name: "unknown upin", upin: "AA-01-9999", registry: &mockRegistry{err: errors.NewNotFoundError("parcel not found")}, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(tt.registry, &mockGate{}, testutil.NewMockLogger())

			c, w := testutil.NewTestContext(http.MethodGet, "/parcels/x", nil)
			testutil.SetAuthContext(c, clerk)
			testutil.SetURLParam(c, "upin", tt.upin)

			handler.GetParcel(c)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestHandler_LinkOwner(t *testing.T) {
	tests := []struct {
		name     string
		parked   bool
		wantCode int
	}{
		{name: "parked for approval", parked: true, wantCode: http.StatusAccepted},
		{name: "applied directly", parked: false, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := &mockGate{parked: tt.parked}
			handler := NewHandler(&mockRegistry{}, gate, testutil.NewMockLogger())

			body := map[string]any{
				"upin":  "SOMETHING-ELSE",
				"owner": map[string]any{"full_name": "Almaz Tesfaye", "national_id": "ET-1"},
				"share": "0.25",
			}
			c, w := testutil.NewTestContext(http.MethodPost, "/parcels/AA-01-0001/owners", body)
			testutil.SetAuthContext(c, clerk)
			testutil.SetURLParam(c, "upin", "AA-01-0001")

			handler.LinkOwner(c)

			assert.Equal(t, tt.wantCode, w.Code)
			cmd, ok := gate.cmd.(services.LinkOwnerCommand)
			require.True(t, ok)
			assert.Equal(t, "AA-01-0001", cmd.UPIN, "path UPIN wins over the body")
			assert.True(t, decimal.RequireFromString("0.25").Equal(cmd.Share))
		})
	}
}

func TestHandler_Transfer_SanitizesReference(t *testing.T) {
	gate := &mockGate{}
	handler := NewHandler(&mockRegistry{}, gate, testutil.NewMockLogger())

	body := map[string]any{
		"to":            map[string]any{"full_name": "Buyer"},
		"share":         "1",
		"transfer_type": "SALE",
		"reference":     "<b>CT-88</b>",
	}
	c, w := testutil.NewTestContext(http.MethodPost, "/parcels/AA-01-0001/transfers", body)
	testutil.SetAuthContext(c, clerk)
	testutil.SetURLParam(c, "upin", "AA-01-0001")

	handler.Transfer(c)

	assert.Equal(t, http.StatusOK, w.Code)
	cmd, ok := gate.cmd.(services.TransferCommand)
	require.True(t, ok)
	assert.Equal(t, "CT-88", cmd.Reference)
}

func TestHandler_Subdivide_UsesPathAsParent(t *testing.T) {
	gate := &mockGate{parked: true}
	handler := NewHandler(&mockRegistry{}, gate, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/parcels/AA-01-0001/subdivisions", map[string]any{"children": []any{}})
	testutil.SetAuthContext(c, clerk)
	testutil.SetURLParam(c, "upin", "AA-01-0001")

	handler.Subdivide(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
	cmd, ok := gate.cmd.(services.SubdivideCommand)
	require.True(t, ok)
	assert.Equal(t, "AA-01-0001", cmd.ParentUPIN)
}

func TestHandler_UpdateShare(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		wantCode int
		called   bool
	}{
		{name: "valid id", id: "12", wantCode: http.StatusOK, called: true},
		{name: "zero id", id: "0", wantCode: http.StatusBadRequest},
		{name: "non numeric id", id: "abc", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := &mockGate{}
			handler := NewHandler(&mockRegistry{}, gate, testutil.NewMockLogger())

			c, w := testutil.NewTestContext(http.MethodPatch, "/ownerships/"+tt.id+"/share", map[string]any{"share": "0.5"})
			testutil.SetAuthContext(c, clerk)
			testutil.SetURLParam(c, "id", tt.id)

			handler.UpdateShare(c)

			assert.Equal(t, tt.wantCode, w.Code)
			if !tt.called {
				assert.Nil(t, gate.cmd)
				return
			}
			cmd, ok := gate.cmd.(services.UpdateShareCommand)
			require.True(t, ok)
			assert.Equal(t, uint(12), cmd.OwnershipID)
		})
	}
}

func TestHandler_GatedError(t *testing.T) {
	gate := &mockGate{err: errors.OverAllocation("shares would exceed the whole")}
	handler := NewHandler(&mockRegistry{}, gate, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/parcels/AA-01-0001/owners", map[string]any{"share": "0.9"})
	testutil.SetAuthContext(c, clerk)
	testutil.SetURLParam(c, "upin", "AA-01-0001")

	handler.LinkOwner(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(errors.ReasonOverAllocation), resp.Error.Reason)
}

func TestHandler_ReleaseEncumbrance(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		parked   bool
		wantCode int
		called   bool
	}{
		{name: "parked for approval", id: "4", parked: true, wantCode: http.StatusAccepted, called: true},
		{name: "applied directly", id: "4", wantCode: http.StatusOK, called: true},
		{name: "zero id", id: "0", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := &mockGate{parked: tt.parked}
			handler := NewHandler(&mockRegistry{}, gate, testutil.NewMockLogger())

			c, w := testutil.NewTestContext(http.MethodPost, "/encumbrances/"+tt.id+"/release", nil)
			testutil.SetAuthContext(c, clerk)
			testutil.SetURLParam(c, "id", tt.id)

			handler.ReleaseEncumbrance(c)

			assert.Equal(t, tt.wantCode, w.Code)
			if !tt.called {
				assert.Nil(t, gate.cmd)
				return
			}
			cmd, ok := gate.cmd.(services.ReleaseEncumbranceCommand)
			require.True(t, ok)
			assert.Equal(t, uint(4), cmd.EncumbranceID)
		})
	}
}
