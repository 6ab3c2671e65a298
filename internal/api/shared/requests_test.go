package shared

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `json:"name" validate:"required,max=5"`
	Age  int    `json:"age"  validate:"gte=0"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"ada","age":36}`, false},
		{"unknown fields ignored", `{"name":"ada","extra":true}`, false},
		{"trailing comma", `{"name":"ada",}`, true},
		{"empty body", ``, true},
		{"two values", `{"name":"a"}{"name":"b"}`, true},
		{"wrong type", `{"age":"old"}`, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(tc.body))
			var got sample
			err := DecodeJSON(httptest.NewRecorder(), r, &got)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ada", got.Name)
		})
	}
}

func TestDecodeJSON_BodyTooLarge(t *testing.T) {
	big := `{"name":"` + strings.Repeat("x", MaxRequestBodyBytes) + `"}`
	r := httptest.NewRequest("POST", "/", strings.NewReader(big))
	var got sample
	assert.Error(t, DecodeJSON(httptest.NewRecorder(), r, &got))
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(sample{Name: "ada"}))

	err := ValidateRequest(sample{Name: "toolong"})
	require.Error(t, err)
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "name", verrs[0].Field(), "errors report JSON field names")
	assert.Equal(t, "max", verrs[0].Tag())
}
