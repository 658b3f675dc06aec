package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTON(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		want    string
		wantErr bool
	}{
		{name: "integer", amount: "1", want: "1000000000"},
		{name: "one point zero", amount: "1.0", want: "1000000000"},
		{name: "gas amount", amount: "0.1", want: "100000000"},
		{name: "fractional", amount: "10.5", want: "10500000000"},
		{name: "smallest unit", amount: "0.000000001", want: "1"},
		{name: "zero", amount: "0", want: "0"},
		{name: "negative", amount: "-2", want: "-2000000000"},
		{name: "whitespace", amount: " 2 ", want: "2000000000"},
		{name: "too many decimals", amount: "0.0000000001", wantErr: true},
		{name: "empty", amount: "", wantErr: true},
		{name: "NaN", amount: "NaN", wantErr: true},
		{name: "Infinity", amount: "Infinity", wantErr: true},
		{name: "garbage", amount: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTON(tt.amount)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFormatTON(t *testing.T) {
	assert.Equal(t, "1", FormatTON(big.NewInt(1_000_000_000)))
	assert.Equal(t, "0.1", FormatTON(big.NewInt(100_000_000)))
	assert.Equal(t, "10.5", FormatTON(big.NewInt(10_500_000_000)))
	assert.Equal(t, "0", FormatTON(nil))
}

func TestParseTON_FormatRoundTrip(t *testing.T) {
	for _, s := range []string{"1", "0.1", "123.456789", "0.000000001"} {
		nano, err := ParseTON(s)
		require.NoError(t, err)
		assert.Equal(t, s, FormatTON(nano))
	}
}

func TestParseUint256(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "decimal", input: "12345", want: "12345"},
		{name: "hex", input: "0x3039", want: "12345"},
		{name: "max value", input: "0x" + repeat("f", 64), want: new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)).String()},
		{name: "overflow", input: "0x1" + repeat("0", 64), wantErr: true},
		{name: "fraction", input: "1.5", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "room", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUint256(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
