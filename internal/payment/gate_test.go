package payment

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeGate(t *testing.T) {
	g := New(true, DefaultPrice, DefaultToken)

	assert.True(t, g.Authorize(""))
	assert.True(t, g.Authorize("garbage"))
	assert.True(t, g.Terms().FreeMode)
}

func TestBearerGate(t *testing.T) {
	g := New(false, DefaultPrice, DefaultToken)

	tests := []struct {
		proof string
		want  bool
	}{
		{"", false},
		{"Bearer", false},
		{"Bearer ", false},
		{"Bearer    ", false},
		{"bearer abc", false},
		{"Basic abc", false},
		{"Bearer abc", true},
		{"Bearer 0xsignedpayment", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, g.Authorize(tt.proof), "proof %q", tt.proof)
	}
	assert.False(t, g.Terms().FreeMode)
}

func TestTerms_MarshalJSON(t *testing.T) {
	terms := Terms{Price: decimal.RequireFromString("0.025"), Token: "USDC", FreeMode: false}

	data, err := json.Marshal(terms)
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":0.025,"token":"USDC","free_mode":false}`, string(data))
}
