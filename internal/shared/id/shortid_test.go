package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionID(t *testing.T) {
	sid, err := NewSessionID()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sid, "rs_"))
	assert.Len(t, sid, len("rs_")+DefaultLength)
	assert.NoError(t, ValidatePrefix(sid, PrefixSession))
	assert.Error(t, ValidatePrefix(sid, PrefixRequest))
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 500)
	for i := 0; i < 500; i++ {
		v, err := Generate(0)
		require.NoError(t, err)
		_, dup := seen[v]
		require.False(t, dup, "duplicate id %s", v)
		seen[v] = struct{}{}
	}
}

func TestParsePrefixedID(t *testing.T) {
	tests := []struct {
		in      string
		prefix  string
		short   string
		wantErr bool
	}{
		{"ar_abc123", "ar", "abc123", false},
		{"rs_a_b", "rs", "a_b", false},
		{"noseparator", "", "", true},
		{"_leading", "", "", true},
		{"trailing_", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			prefix, short, err := ParsePrefixedID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.prefix, prefix)
			assert.Equal(t, tt.short, short)
		})
	}
}
