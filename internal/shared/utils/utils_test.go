package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landreg/cadastre/internal/shared/errors"
)

type samplePayload struct {
	UPIN      string `json:"upin" validate:"required"`
	TotalArea string `json:"total_area" validate:"required,decimal"`
	Tenure    string `json:"tenure_type" validate:"omitempty,oneof=OLD_POSSESSION LEASE"`
}

func TestFieldErrors_UsesJSONNames(t *testing.T) {
	msgs := FieldErrors(samplePayload{TotalArea: "abc", Tenure: "RENT"})

	assert.Contains(t, msgs, "upin is required")
	assert.Contains(t, msgs, "total_area must be a decimal number")
	assert.Contains(t, msgs, "tenure_type must be one of [OLD_POSSESSION LEASE]")
}

func TestValidateStruct_OK(t *testing.T) {
	assert.NoError(t, ValidateStruct(samplePayload{UPIN: "AA-1", TotalArea: "250.5"}))

	err := ValidateStruct(samplePayload{})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "missing survey plan", SanitizeText("  <b>missing</b> survey plan<script>x()</script> "))
}

func TestErrorResponseWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{"over allocation", errors.OverAllocation("0.6 already allocated"), http.StatusConflict, "OVER_ALLOCATION"},
		{"wrapped expired", fmt.Errorf("submit: %w", errors.Expired("session expired")), http.StatusGone, "EXPIRED"},
		{"plain error hides details", fmt.Errorf("db down"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			ErrorResponseWithError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantReason, body.Error.Reason)
			assert.NotContains(t, body.Error.Message, "db down")
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
}
