package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreateInput() map[string]interface{} {
	return map[string]interface{}{
		"userId":           "user-1",
		"annualIncome":     900000.0,
		"loanAmount":       250000.0,
		"systemCapacityKw": 3.0,
		"state":            "Maharashtra",
		"panNumber":        "ABCDE1234F",
	}
}

func TestCreateLoanSchema(t *testing.T) {
	v := MustValidator("create-loan", CreateLoanSchema)

	tests := []struct {
		name        string
		mutate      func(map[string]interface{})
		valid       bool
		errorFields []string
	}{
		{"valid input", func(map[string]interface{}) {}, true, nil},
		{"missing state", func(m map[string]interface{}) { delete(m, "state") }, false, []string{"state"}},
		{"zero loan amount", func(m map[string]interface{}) { m["loanAmount"] = 0.0 }, false, []string{"loanAmount"}},
		{"bad pan", func(m map[string]interface{}) { m["panNumber"] = "abc" }, false, []string{"panNumber"}},
		{"unknown system type", func(m map[string]interface{}) { m["systemType"] = "industrial" }, false, []string{"systemType"}},
		{"tenure too long", func(m map[string]interface{}) { m["loanTenureYears"] = 40 }, false, []string{"loanTenureYears"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCreateInput()
			tt.mutate(input)

			result, err := v.Validate(input)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid, result.GetErrorMessages())
			for _, f := range tt.errorFields {
				assert.True(t, result.HasErrors(f), "expected error on %s, got %v", f, result.GetErrorMessages())
			}
		})
	}
}

func TestUpdateLoanSchema(t *testing.T) {
	v := MustValidator("update-loan", UpdateLoanSchema)

	result, err := v.Validate(map[string]interface{}{
		"loanId":  "loan-1",
		"userId":  "user-1",
		"changes": map[string]interface{}{"loan_amount": 300000.0},
	})
	require.NoError(t, err)
	assert.True(t, result.Valid, result.GetErrorMessages())

	result, err = v.Validate(map[string]interface{}{
		"loanId":  "loan-1",
		"userId":  "user-1",
		"changes": map[string]interface{}{"status": "approved"},
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestNewValidator_InvalidSchema(t *testing.T) {
	_, err := NewValidator("broken", `{"type": 12}`)
	assert.Error(t, err)
}
