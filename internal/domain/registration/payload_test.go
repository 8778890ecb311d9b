package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landreg/cadastre/internal/shared/errors"
)

func TestDecodePayload_Parcel(t *testing.T) {
	raw := []byte(`{"upin":"BL-1","file_number":"F1","sub_city":"Bole","wereda":"03",
		"total_area_m2":"120.25","land_use":"RESIDENTIAL","tenure_type":"LEASE"}`)

	p, err := DecodePayload(StepParcel, raw)
	require.NoError(t, err)

	parcelData, ok := p.(ParcelData)
	require.True(t, ok)
	assert.Equal(t, "120.25", parcelData.TotalAreaM2.String())
}

func TestDecodePayload_Rejections(t *testing.T) {
	tests := []struct {
		name string
		step Step
		raw  string
	}{
		{"unknown field", StepParcel, `{"upin":"BL-1","colour":"red"}`},
		{"missing required", StepParcel, `{"upin":"BL-1"}`},
		{"bad tenure", StepParcel, `{"upin":"B","file_number":"F","sub_city":"S","wereda":"W","total_area_m2":"1","land_use":"R","tenure_type":"RENT"}`},
		{"zero area", StepParcel, `{"upin":"B","file_number":"F","sub_city":"S","wereda":"W","total_area_m2":"0","land_use":"R","tenure_type":"LEASE"}`},
		{"new owner without national id", StepOwner, `{"full_name":"A","phone_number":"1","share_ratio":"1"}`},
		{"share over one", StepOwner, `{"owner_id":3,"share_ratio":"1.5"}`},
		{"share too precise", StepOwner, `{"owner_id":3,"share_ratio":"0.1234567"}`},
		{"lease dates reversed", StepLease, `{"leased_area_m2":"10","total_lease_amount":"10","down_payment":"1","start_date":"2030-01-01","expiry_date":"2029-01-01"}`},
		{"lease bad date", StepLease, `{"leased_area_m2":"10","total_lease_amount":"10","down_payment":"1","start_date":"01/01/2030","expiry_date":"2031-01-01"}`},
		{"payload on document step", StepParcelDocs, `{"upin":"x"}`},
		{"empty payload step", StepOwner, ``},
		{"not json", StepOwner, `owner`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePayload(tt.step, []byte(tt.raw))
			assert.True(t, errors.HasReason(err, errors.ReasonInvalidPayload), "got %v", err)
		})
	}
}

func TestDecodePayload_ExistingOwner(t *testing.T) {
	p, err := DecodePayload(StepOwner, []byte(`{"owner_id":3,"share_ratio":"0.5","acquired_at":"2020-02-01"}`))
	require.NoError(t, err)

	owner := p.(OwnerData)
	assert.True(t, owner.IsExistingOwner())
	assert.Equal(t, 2020, owner.AcquiredOn(t0).Year())
}

func TestDecodePayload_NoPayloadSteps(t *testing.T) {
	for _, raw := range []string{"", "null", "{}"} {
		p, err := DecodePayload(StepValidation, []byte(raw))
		assert.NoError(t, err)
		assert.Nil(t, p)
	}
}

func TestParseStep(t *testing.T) {
	step, ok := ParseStep("owner-docs")
	assert.True(t, ok)
	assert.Equal(t, StepOwnerDocs, step)

	_, ok = ParseStep("payment")
	assert.False(t, ok)
}
