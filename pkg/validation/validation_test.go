package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/clinic-admin-api/pkg/errors"
)

type sampleItem struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

type samplePayload struct {
	Code   string       `json:"code" validate:"required,currency_code"`
	Start  string       `json:"start_time" validate:"required,hhmm"`
	Period string       `json:"period" validate:"omitempty,yearmonth"`
	Kind   string       `json:"kind" validate:"oneof=A B"`
	Items  []sampleItem `json:"items" validate:"required,min=1,dive"`
}

func TestStructReportsFieldKeyedMessages(t *testing.T) {
	v := New()
	err := Struct(v, samplePayload{
		Code:   "usd",
		Start:  "25:00",
		Period: "2025-13",
		Kind:   "C",
		Items:  []sampleItem{{Quantity: 0}},
	}, "invalid payload")
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "invalid payload", appErr.Message)
	assert.Equal(t, "must be a 3-letter uppercase ISO code", appErr.Details["code"])
	assert.Equal(t, "must be a time in HH:MM format", appErr.Details["start_time"])
	assert.Equal(t, "must be a period in YYYY-MM format", appErr.Details["period"])
	assert.Equal(t, "must be one of [A B]", appErr.Details["kind"])
	assert.Equal(t, "must be greater than 0", appErr.Details["items[0].quantity"])
}

func TestStructAcceptsValidPayload(t *testing.T) {
	v := New()
	err := Struct(v, samplePayload{
		Code:  "IDR",
		Start: "24:00",
		Kind:  "A",
		Items: []sampleItem{{Quantity: 2}},
	}, "")
	require.NoError(t, err)
}
