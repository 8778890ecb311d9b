package approval

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landreg/cadastre/internal/application/approval/dto"
	"github.com/landreg/cadastre/internal/application/approval/usecases"
	domain "github.com/landreg/cadastre/internal/domain/approval"
	"github.com/landreg/cadastre/internal/interfaces/http/handlers/testutil"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/errors"
)

var checker = authorization.Actor{UserID: 20, Role: authorization.RoleSubcityApprover, SubAuthority: "BOLE"}

type mockListPendingUC struct {
	req dto.ListPendingRequest
}

func (m *mockListPendingUC) Execute(ctx context.Context, actor authorization.Actor, req dto.ListPendingRequest) (*dto.ListPendingResponse, error) {
	m.req = req
	return &dto.ListPendingResponse{
		Requests: []*dto.RequestResponse{{RequestID: "ar_1", Status: "PENDING"}},
		Total:    1,
		Page:     1,
		PageSize: 20,
	}, nil
}

type mockGetRequestUC struct {
	err error
}

func (m *mockGetRequestUC) Execute(ctx context.Context, actor authorization.Actor, requestID string) (*dto.RequestResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.RequestResponse{RequestID: requestID}, nil
}

type mockDecideUC struct {
	cmd    usecases.DecideCommand
	called bool
	err    error
}

func (m *mockDecideUC) Execute(ctx context.Context, actor authorization.Actor, cmd usecases.DecideCommand) (*dto.DecisionResponse, error) {
	m.cmd, m.called = cmd, true
	if m.err != nil {
		return nil, m.err
	}
	return &dto.DecisionResponse{Request: &dto.RequestResponse{RequestID: cmd.RequestID, Status: "REJECTED"}}, nil
}

func TestHandler_ListPending(t *testing.T) {
	uc := &mockListPendingUC{}
	handler := NewHandler(uc, nil, nil, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/approvals", nil)
	testutil.SetAuthContext(c, checker)
	testutil.SetQueryParams(c, map[string]string{"entity_type": "REGISTRATION_SESSION", "page": "2"})

	handler.ListPending(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "REGISTRATION_SESSION", uc.req.EntityType)
	assert.Equal(t, 2, uc.req.Page)
}

func TestHandler_GetRequest(t *testing.T) {
	tests := []struct {
		name     string
		rid      string
		uc       *mockGetRequestUC
		wantCode int
	}{
		{name: "found", rid: "ar_abc", uc: &mockGetRequestUC{}, wantCode: http.StatusOK},
		{name: "wrong prefix", rid: "rs_abc", uc: &mockGetRequestUC{}, wantCode: http.StatusBadRequest},
		{name: "not visible", rid: "ar_abc", uc: &mockGetRequestUC{err: errors.NewNotFoundError("approval request not found")}, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(nil, tt.uc, nil, testutil.NewMockLogger())

			c, w := testutil.NewTestContext(http.MethodGet, "/approvals/"+tt.rid, nil)
			testutil.SetAuthContext(c, checker)
			testutil.SetURLParam(c, "rid", tt.rid)

			handler.GetRequest(c)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestHandler_Decide_SanitizesReason(t *testing.T) {
	uc := &mockDecideUC{}
	handler := NewHandler(nil, nil, uc, testutil.NewMockLogger())

	body := dto.DecisionRequest{Decision: "REJECT", Reason: `boundary <script>alert(1)</script>mismatch`}
	c, w := testutil.NewTestContext(http.MethodPost, "/approvals/ar_abc/decision", body)
	testutil.SetAuthContext(c, checker)
	testutil.SetURLParam(c, "rid", "ar_abc")

	handler.Decide(c)

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, uc.called)
	assert.Equal(t, "ar_abc", uc.cmd.RequestID)
	assert.Equal(t, domain.DecisionReject, uc.cmd.Decision)
	assert.NotContains(t, uc.cmd.Reason, "<script>")
	assert.Contains(t, uc.cmd.Reason, "boundary")
}

func TestHandler_Decide_InvalidDecision(t *testing.T) {
	uc := &mockDecideUC{}
	handler := NewHandler(nil, nil, uc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/approvals/ar_abc/decision", map[string]string{"decision": "MAYBE"})
	testutil.SetAuthContext(c, checker)
	testutil.SetURLParam(c, "rid", "ar_abc")

	handler.Decide(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, uc.called)
}

func TestHandler_Decide_Forbidden(t *testing.T) {
	uc := &mockDecideUC{err: errors.NewForbiddenError("makers cannot decide their own requests")}
	handler := NewHandler(nil, nil, uc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/approvals/ar_abc/decision", dto.DecisionRequest{Decision: "APPROVE"})
	testutil.SetAuthContext(c, checker)
	testutil.SetURLParam(c, "rid", "ar_abc")

	handler.Decide(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(errors.ReasonForbidden), resp.Error.Reason)
}
