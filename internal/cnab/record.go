// Package cnab provides fixed-width field formatting and line assembly for
// bank remittance files. Numeric fields never truncate; text fields are
// normalized to the single-byte target charset before padding.
package cnab

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "fidc/pkg/errors"
)

// FormatNumeric renders v right-aligned and zero-padded to width. A value
// wider than the field is a hard failure: silent truncation would corrupt an
// amount or a date.
func FormatNumeric(v int64, width int) (string, error) {
	if v < 0 {
		return "", pkgerrors.Wrap(pkgerrors.ErrFieldOverflow, "negative value in numeric field")
	}
	s := strconv.FormatInt(v, 10)
	if len(s) > width {
		return "", pkgerrors.Wrap(pkgerrors.ErrFieldOverflow,
			fmt.Sprintf("value %d needs %d digits, field width is %d", v, len(s), width))
	}
	return strings.Repeat("0", width-len(s)) + s, nil
}

// FormatDigits renders an already-numeric string (account codes, documents)
// zero-padded to width, with the same overflow rule as FormatNumeric.
func FormatDigits(digits string, width int) (string, error) {
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return "", pkgerrors.Wrap(pkgerrors.ErrFieldOverflow,
				fmt.Sprintf("non-digit %q in numeric field", digits[i]))
		}
	}
	if len(digits) > width {
		return "", pkgerrors.Wrap(pkgerrors.ErrFieldOverflow,
			fmt.Sprintf("value needs %d digits, field width is %d", len(digits), width))
	}
	return strings.Repeat("0", width-len(digits)) + digits, nil
}

// FormatAmount renders a monetary amount in minor units (two implied
// decimals), zero-padded to width.
func FormatAmount(amount decimal.Decimal, width int) (string, error) {
	minor := amount.Mul(decimal.NewFromInt(100)).Round(0)
	if !minor.IsInteger() || minor.IsNegative() {
		return "", pkgerrors.Wrap(pkgerrors.ErrFieldOverflow, "amount is not representable in minor units")
	}
	return FormatNumeric(minor.IntPart(), width)
}

// FormatText renders free text left-aligned and space-padded to width.
// Overlong text is right-truncated, which is acceptable for descriptive
// fields, and characters outside the target charset are substituted first.
func FormatText(text string, width int) string {
	text = Normalize(text)
	if len(text) > width {
		text = text[:width]
	}
	return text + strings.Repeat(" ", width-len(text))
}

// LineBuilder assembles one fixed-width record. Appenders accumulate the
// first error; Build asserts the exact declared width so an off-width line
// can never leave the package.
type LineBuilder struct {
	width int
	buf   strings.Builder
	err   error
}

// NewLine starts a record of the given layout width.
func NewLine(width int) *LineBuilder {
	b := &LineBuilder{width: width}
	b.buf.Grow(width)
	return b
}

// Literal appends a fixed fragment verbatim.
func (b *LineBuilder) Literal(s string) *LineBuilder {
	if b.err != nil {
		return b
	}
	b.buf.WriteString(s)
	return b
}

// Numeric appends a zero-padded numeric field.
func (b *LineBuilder) Numeric(v int64, width int) *LineBuilder {
	if b.err != nil {
		return b
	}
	s, err := FormatNumeric(v, width)
	if err != nil {
		b.err = b.fieldErr(err)
		return b
	}
	b.buf.WriteString(s)
	return b
}

// Digits appends a zero-padded digit-string field.
func (b *LineBuilder) Digits(digits string, width int) *LineBuilder {
	if b.err != nil {
		return b
	}
	s, err := FormatDigits(digits, width)
	if err != nil {
		b.err = b.fieldErr(err)
		return b
	}
	b.buf.WriteString(s)
	return b
}

// Amount appends a monetary amount in minor units.
func (b *LineBuilder) Amount(amount decimal.Decimal, width int) *LineBuilder {
	if b.err != nil {
		return b
	}
	s, err := FormatAmount(amount, width)
	if err != nil {
		b.err = b.fieldErr(err)
		return b
	}
	b.buf.WriteString(s)
	return b
}

// Text appends a normalized, space-padded text field.
func (b *LineBuilder) Text(text string, width int) *LineBuilder {
	if b.err != nil {
		return b
	}
	b.buf.WriteString(FormatText(text, width))
	return b
}

// Date appends a date in the given reference layout (e.g. "02012006").
func (b *LineBuilder) Date(t time.Time, layout string) *LineBuilder {
	if b.err != nil {
		return b
	}
	b.buf.WriteString(t.Format(layout))
	return b
}

// Blank appends n spaces.
func (b *LineBuilder) Blank(n int) *LineBuilder {
	if b.err != nil {
		return b
	}
	b.buf.WriteString(strings.Repeat(" ", n))
	return b
}

// Zeros appends n zero characters.
func (b *LineBuilder) Zeros(n int) *LineBuilder {
	if b.err != nil {
		return b
	}
	b.buf.WriteString(strings.Repeat("0", n))
	return b
}

// Len reports the number of characters appended so far.
func (b *LineBuilder) Len() int {
	return b.buf.Len()
}

// Build returns the finished record, failing when any field overflowed or the
// total width deviates from the layout.
func (b *LineBuilder) Build() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	line := b.buf.String()
	if len(line) != b.width {
		return "", pkgerrors.Wrap(pkgerrors.ErrLineLengthMismatch,
			fmt.Sprintf("line is %d characters, layout requires %d", len(line), b.width))
	}
	return line, nil
}

func (b *LineBuilder) fieldErr(err error) error {
	return pkgerrors.Wrap(err, fmt.Sprintf("at offset %d", b.buf.Len()))
}
