package cnab

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "fidc/pkg/errors"
)

func TestFormatNumeric(t *testing.T) {
	s, err := FormatNumeric(150000, 10)
	require.NoError(t, err)
	assert.Equal(t, "0000150000", s)

	s, err = FormatNumeric(0, 6)
	require.NoError(t, err)
	assert.Equal(t, "000000", s)

	// exact fit
	s, err = FormatNumeric(123456, 6)
	require.NoError(t, err)
	assert.Equal(t, "123456", s)
}

func TestFormatNumeric_Overflow(t *testing.T) {
	_, err := FormatNumeric(150000, 5)
	assert.ErrorIs(t, err, pkgerrors.ErrFieldOverflow)

	_, err = FormatNumeric(-1, 5)
	assert.ErrorIs(t, err, pkgerrors.ErrFieldOverflow)
}

func TestFormatAmount(t *testing.T) {
	// 1500.00 in minor units -> 150000
	s, err := FormatAmount(decimal.NewFromInt(1500), 10)
	require.NoError(t, err)
	assert.Equal(t, "0000150000", s)

	s, err = FormatAmount(decimal.RequireFromString("1234.56"), 13)
	require.NoError(t, err)
	assert.Equal(t, "0000000123456", s)

	_, err = FormatAmount(decimal.NewFromInt(1500), 5)
	assert.ErrorIs(t, err, pkgerrors.ErrFieldOverflow)
}

func TestFormatDigits(t *testing.T) {
	s, err := FormatDigits("45", 5)
	require.NoError(t, err)
	assert.Equal(t, "00045", s)

	_, err = FormatDigits("123456", 5)
	assert.ErrorIs(t, err, pkgerrors.ErrFieldOverflow)

	_, err = FormatDigits("12-4", 5)
	assert.ErrorIs(t, err, pkgerrors.ErrFieldOverflow)
}

func TestFormatText(t *testing.T) {
	assert.Equal(t, "ACME      ", FormatText("ACME", 10))
	// right truncation is fine for descriptive fields
	assert.Equal(t, "ABCDE", FormatText("ABCDEFGH", 5))
	// accents fold to base letters, control chars become spaces
	assert.Equal(t, "JOAO      ", FormatText("JOÃO", 10))
	assert.Equal(t, "SAO PAULO ", FormatText("SÃO PAULO", 10))
}

func TestLineBuilder_ExactWidth(t *testing.T) {
	line, err := NewLine(20).
		Literal("033").
		Numeric(42, 5).
		Text("OK", 4).
		Zeros(3).
		Blank(5).
		Build()
	require.NoError(t, err)
	assert.Len(t, line, 20)
	assert.Equal(t, "03300042OK  000     ", line)
}

func TestLineBuilder_WidthMismatch(t *testing.T) {
	_, err := NewLine(240).Literal("033").Build()
	assert.ErrorIs(t, err, pkgerrors.ErrLineLengthMismatch)
}

func TestLineBuilder_PropagatesFieldOverflow(t *testing.T) {
	_, err := NewLine(10).Numeric(123456, 3).Blank(7).Build()
	assert.ErrorIs(t, err, pkgerrors.ErrFieldOverflow)
}

func TestLineBuilder_Date(t *testing.T) {
	due := time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)
	line, err := NewLine(8).Date(due, "02012006").Build()
	require.NoError(t, err)
	assert.Equal(t, "09032025", line)
}

func TestRenderFile(t *testing.T) {
	out, err := RenderFile([]string{"AAA", "BBB"})
	require.NoError(t, err)
	assert.Equal(t, "AAA\r\nBBB", string(out))
}

func TestRenderFile_SingleByteEncoding(t *testing.T) {
	// normalized lines are plain ASCII, so byte length equals rune length
	line := FormatText("JOSÉ DA SILVA", 40)
	out, err := RenderFile([]string{line})
	require.NoError(t, err)
	assert.Len(t, out, 40)
	assert.True(t, strings.HasPrefix(string(out), "JOSE DA SILVA"))
}
