package checksum

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "fidc/pkg/errors"
)

func TestMod10_KnownValues(t *testing.T) {
	cases := []struct {
		digits string
		want   int
	}{
		{"001905009", 5}, // classic Febraban field example
		{"0", 0},
		{"1", 8},
		{"9999", 4},
		{"4014481606", 9},
	}

	for _, tc := range cases {
		got, err := Mod10(tc.digits)
		assert.NoError(t, err)
		assert.Equal(t, tc.want, got, "mod10(%s)", tc.digits)
	}
}

func TestMod10_RangeAndDeterminism(t *testing.T) {
	inputs := []string{"0", "123456789", "0000150000", "999999999999999999"}
	for _, in := range inputs {
		first, err := Mod10(in)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, first, 0)
		assert.LessOrEqual(t, first, 9)

		// same input, same output, every time
		for i := 0; i < 3; i++ {
			again, err := Mod10(in)
			assert.NoError(t, err)
			assert.Equal(t, first, again)
		}
	}
}

func TestMod10_RejectsNonDigits(t *testing.T) {
	for _, in := range []string{"", "12a4", "12 4", "12.4", "-12"} {
		_, err := Mod10(in)
		assert.ErrorIs(t, err, pkgerrors.ErrChecksumInput, "input %q", in)
	}
}

func TestMod11_BarcodeTable(t *testing.T) {
	table := Mod11Table{0: '1', 1: '1'}

	cases := []struct {
		digits string
		want   byte
	}{
		{"0", '1'}, // remainder 0 -> exception
		{"6", '1'}, // sum 12, remainder 1 -> exception
		{"1", '9'}, // sum 2, remainder 2 -> 11-2
		{"5", '1'}, // sum 10, remainder 10 -> 11-10
	}

	for _, tc := range cases {
		got, err := Mod11(tc.digits, 9, table)
		assert.NoError(t, err)
		assert.Equal(t, string(tc.want), string(got), "mod11(%s)", tc.digits)
	}
}

func TestMod11_BMPTable(t *testing.T) {
	// BMP Money Plus: weights cycle 2..7, remainder 0 -> '0', remainder 1 -> 'P'
	table := Mod11Table{0: '0', 1: 'P'}

	got, err := Mod11("10900000000001", 7, table)
	assert.NoError(t, err)
	assert.Equal(t, "9", string(got))

	got, err = Mod11("6", 7, table)
	assert.NoError(t, err)
	assert.Equal(t, "P", string(got))

	got, err = Mod11("0", 7, table)
	assert.NoError(t, err)
	assert.Equal(t, "0", string(got))
}

func TestMod11_SantanderTable(t *testing.T) {
	// Santander maps remainders 0 and 1 (results 11 and 10) to '0'
	table := Mod11Table{0: '0', 1: '0'}

	got, err := Mod11("000000000001", 9, table)
	assert.NoError(t, err)
	assert.Equal(t, "9", string(got))

	got, err = Mod11("0", 9, table)
	assert.NoError(t, err)
	assert.Equal(t, "0", string(got))
}

func TestMod11_TableCoversEveryRemainder(t *testing.T) {
	// one input per remainder value, full exception table supplied
	table := Mod11Table{}
	for r := 0; r <= 10; r++ {
		table[r] = byte('A' + r)
	}

	seen := map[byte]bool{}
	for n := 0; n < 200; n++ {
		got, err := Mod11(fmt.Sprintf("%d", n), 9, table)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, got, byte('A'))
		assert.LessOrEqual(t, got, byte('A'+10))
		seen[got] = true
	}
	// weights over small inputs reach every remainder class
	assert.GreaterOrEqual(t, len(seen), 10)
}

func TestMod11Table_FallbackAlwaysDigit(t *testing.T) {
	// an empty table exercises the fallback for every remainder class
	table := Mod11Table{}
	for r := 0; r <= 10; r++ {
		got := table.Digit(r)
		assert.GreaterOrEqual(t, got, byte('0'), "remainder %d", r)
		assert.LessOrEqual(t, got, byte('9'), "remainder %d", r)
	}
	assert.Equal(t, byte('0'), table.Digit(0))
	assert.Equal(t, byte('0'), table.Digit(1))
	assert.Equal(t, byte('9'), table.Digit(2))
	assert.Equal(t, byte('1'), table.Digit(10))
}

func TestMod11_RejectsNonDigits(t *testing.T) {
	table := Mod11Table{0: '1', 1: '1'}
	for _, in := range []string{"", "x", "123-4"} {
		_, err := Mod11(in, 9, table)
		assert.ErrorIs(t, err, pkgerrors.ErrChecksumInput)
	}
}
