package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	t.Run("whole amount", func(t *testing.T) {
		v, err := ParseAmount("1", 18)
		require.NoError(t, err)
		assert.Equal(t, "1000000000000000000", v.String())
	})

	t.Run("fractional amount", func(t *testing.T) {
		v, err := ParseAmount("1.5", 18)
		require.NoError(t, err)
		assert.Equal(t, "1500000000000000000", v.String())
	})

	t.Run("token decimals", func(t *testing.T) {
		v, err := ParseAmount("2.25", 6)
		require.NoError(t, err)
		assert.Equal(t, "2250000", v.String())
	})

	t.Run("whitespace trimmed", func(t *testing.T) {
		v, err := ParseAmount(" 0.5 ", 18)
		require.NoError(t, err)
		assert.Equal(t, "500000000000000000", v.String())
	})

	t.Run("zero rejected", func(t *testing.T) {
		_, err := ParseAmount("0", 18)
		assert.Error(t, err)
	})

	t.Run("negative rejected", func(t *testing.T) {
		_, err := ParseAmount("-1", 18)
		assert.Error(t, err)
	})

	t.Run("too many decimal places rejected", func(t *testing.T) {
		_, err := ParseAmount("1.1234567", 6)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "decimal places")
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := ParseAmount("one", 18)
		assert.Error(t, err)
	})
}

func TestFormatAmount(t *testing.T) {
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, "1.5", FormatAmount(wei, 18))
	assert.Equal(t, "0", FormatAmount(nil, 18))
	assert.Equal(t, "0.000001", FormatAmount(big.NewInt(1), 6))
}

func TestFormatAmountWithSymbol(t *testing.T) {
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, "1.5 ETH", FormatAmountWithSymbol(wei, 18, "ETH"))
	assert.Equal(t, "1.5", FormatAmountWithSymbol(wei, 18, ""))
}
