package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUUID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid lowercase", "4dace5e7-39cf-4e9b-9ecf-78a5c6a56d63", false},
		{"valid uppercase", "4DACE5E7-39CF-4E9B-9ECF-78A5C6A56D63", false},
		{"empty", "", true},
		{"garbage", "not-a-uuid", true},
		{"too short", "4dace5e7-39cf-4e9b-9ecf", true},
		{"braced form rejected", "{4dace5e7-39cf-4e9b-9ecf-78a5c6a56d63}", true},
		{"urn form rejected", "urn:uuid:4dace5e7-39cf-4e9b-9ecf-78a5c6a56d63", true},
		{"no dashes", "4dace5e739cf4e9b9ecf78a5c6a56d63", true},
		{"non-hex", "zzzce5e7-39cf-4e9b-9ecf-78a5c6a56d63", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateUUID("uuid", tc.input)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOptionalUUID(t *testing.T) {
	assert.NoError(t, ValidateOptionalUUID("owner_uuid", ""))
	assert.NoError(t, ValidateOptionalUUID("owner_uuid", "4dace5e7-39cf-4e9b-9ecf-78a5c6a56d63"))
	assert.Error(t, ValidateOptionalUUID("owner_uuid", "bogus"))
}
