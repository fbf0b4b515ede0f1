package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"cedi price", "₵85.00", "₵85.00"},
		{"no symbol", "120", "₵120.00"},
		{"thousands separator dropped", "₵1,250.50", "₵1250.50"},
		{"surrounding text", "GHS 19.99 only", "₵19.99"},
		{"sign is stripped", "-5.00", "₵5.00"},
		{"more precision kept", "₵0.125", "₵0.13"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, input := range []string{"", "₵", "free", "1.2.3"} {
		_, err := Parse(input)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", input)
	}
}

func TestArithmeticIsExact(t *testing.T) {
	// 0.1 summed ten times drifts in float64 but not here
	sum := Zero
	for i := 0; i < 10; i++ {
		sum = sum.Add(MustParse("0.10"))
	}
	assert.True(t, sum.Equal(MustParse("1.00")))

	assert.Equal(t, "₵255.00", MustParse("₵85.00").Mul(3).String())
	assert.Equal(t, "₵65.00", MustParse("₵85.00").Sub(MustParse("₵20.00")).String())
	assert.Equal(t, "₵0.20", FromCents(20).String())
}

func TestPredicates(t *testing.T) {
	assert.True(t, Zero.IsZero())
	assert.False(t, Zero.IsPositive())
	assert.True(t, MustParse("1").IsPositive())
	assert.True(t, Zero.Sub(MustParse("1")).IsNegative())
	assert.Equal(t, 1, MustParse("2").Cmp(MustParse("1")))
	assert.Equal(t, "20.00", MustParse("₵20").Plain())
}

func TestJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{MustParse("105")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":"₵105.00"}`, string(data))

	var out struct {
		Total Money `json:"total"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, out.Total.Equal(MustParse("105")))
}
