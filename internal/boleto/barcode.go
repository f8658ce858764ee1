package boleto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fidc/internal/checksum"
	"fidc/internal/cnab"
	"fidc/internal/domain"
	pkgerrors "fidc/pkg/errors"
)

const (
	// currencyReal is the fixed currency marker for BRL slips.
	currencyReal = "9"

	barcodeLength = 44
	freeFieldLen  = 25
	amountWidth   = 10
)

// barcodeDVTable resolves the overall check digit: results 0, 10 and 11 all
// collapse to 1, which maps to remainders 0 and 1.
var barcodeDVTable = checksum.Mod11Table{0: '1', 1: '1'}

// dueFactorBase is the Febraban reference date the 4-digit due factor counts
// from.
var dueFactorBase = time.Date(1997, time.October, 7, 0, 0, 0, 0, time.UTC)

// Encoding is the computed machine- and human-readable representation of one
// instrument. Immutable once stored on the instrument.
type Encoding struct {
	Barcode       string
	DigitableLine string
	DueFactor     int
}

// DueFactor converts a due date into the 4-digit day count from the reference
// date. Counts past 9999 wrap back into the 1000-9999 window, following the
// convention adopted for dates beyond February 2025.
func DueFactor(due time.Time) (int, error) {
	day := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	days := int(day.Sub(dueFactorBase).Hours() / 24)
	if days <= 0 {
		return 0, fmt.Errorf("due date %s precedes the factor reference date", due.Format("2006-01-02"))
	}
	if days > 9999 {
		days = (days-1000)%9000 + 1000
	}
	return days, nil
}

// Encode assembles the 44-digit barcode and derives the digitable line for
// one instrument. Pure: identical input always yields identical output.
func Encode(profile *domain.BankProfile, identifier int64, amount decimal.Decimal, due time.Time) (*Encoding, error) {
	spec, err := Spec(profile.BankCode)
	if err != nil {
		return nil, err
	}

	factor, err := DueFactor(due)
	if err != nil {
		return nil, err
	}
	factorField, err := cnab.FormatNumeric(int64(factor), 4)
	if err != nil {
		return nil, err
	}

	amountField, err := cnab.FormatAmount(amount, amountWidth)
	if err != nil {
		return nil, err
	}

	free, err := spec.freeField(profile, identifier)
	if err != nil {
		return nil, err
	}
	if len(free) != freeFieldLen {
		return nil, pkgerrors.Wrap(pkgerrors.ErrLineLengthMismatch,
			fmt.Sprintf("free field is %d digits, layout requires %d", len(free), freeFieldLen))
	}

	// overall check digit covers the other 43 positions
	withoutDV := spec.Code + currencyReal + factorField + amountField + free
	dv, err := checksum.Mod11(withoutDV, 9, barcodeDVTable)
	if err != nil {
		return nil, err
	}

	barcode := spec.Code + currencyReal + string(dv) + factorField + amountField + free
	if len(barcode) != barcodeLength {
		return nil, pkgerrors.Wrap(pkgerrors.ErrLineLengthMismatch,
			fmt.Sprintf("barcode is %d digits, expected %d", len(barcode), barcodeLength))
	}

	line, err := digitableLine(spec.Code, string(dv), factorField, amountField, free)
	if err != nil {
		return nil, err
	}

	return &Encoding{
		Barcode:       barcode,
		DigitableLine: line,
		DueFactor:     factor,
	}, nil
}

// digitableLine splits the barcode into the five conventional sub-fields,
// appends a mod-10 check digit to the first three, and renders the grouped
// human-readable form.
func digitableLine(bankCode, overallDV, factorField, amountField, free string) (string, error) {
	field1, err := withMod10(bankCode + currencyReal + free[:5])
	if err != nil {
		return "", err
	}
	field2, err := withMod10(free[5:15])
	if err != nil {
		return "", err
	}
	field3, err := withMod10(free[15:25])
	if err != nil {
		return "", err
	}
	field5 := factorField + amountField

	return fmt.Sprintf("%s.%s %s.%s %s.%s %s %s",
		field1[:5], field1[5:],
		field2[:5], field2[5:],
		field3[:5], field3[5:],
		overallDV,
		field5,
	), nil
}

func withMod10(digits string) (string, error) {
	dv, err := checksum.Mod10(digits)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", digits, dv), nil
}
