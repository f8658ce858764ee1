// Package checksum implements the mod10 and mod11 digit-check algorithms used
// by boleto barcodes and bank identifier check digits. Both functions are pure
// and reject non-digit input before computing anything.
package checksum

import (
	pkgerrors "fidc/pkg/errors"
)

// Mod11Table maps a mod-11 remainder (0..10) to its final check character.
// Each bank publishes its own exception rules, so the table is always
// supplied by the caller rather than baked into the algorithm.
type Mod11Table map[int]byte

// Digit resolves the check character for a remainder. Remainders 2..10
// absent from the table follow the standard rule 11 - remainder; for
// remainders 0 and 1 that rule would not yield a digit, so they default to
// '0' when the table leaves them out.
func (t Mod11Table) Digit(remainder int) byte {
	if d, ok := t[remainder]; ok {
		return d
	}
	if remainder < 2 {
		return '0'
	}
	return byte('0' + 11 - remainder)
}

// Mod10 computes the mod-10 check digit: weights alternate 2,1 from the
// rightmost digit, products of two digits are reduced by digit sum, and the
// result is the distance to the next multiple of ten.
func Mod10(digits string) (int, error) {
	if err := validateDigits(digits); err != nil {
		return 0, err
	}

	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		v := int(digits[i]-'0') * weight
		if v > 9 {
			v = v/10 + v%10
		}
		sum += v
		if weight == 2 {
			weight = 1
		} else {
			weight = 2
		}
	}

	return (10 - sum%10) % 10, nil
}

// Mod11 computes the mod-11 remainder with weights cycling 2..maxWeight from
// the rightmost digit and resolves the final character through the supplied
// exception table.
func Mod11(digits string, maxWeight int, table Mod11Table) (byte, error) {
	if err := validateDigits(digits); err != nil {
		return 0, err
	}
	if maxWeight < 2 {
		maxWeight = 9
	}

	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight++
		if weight > maxWeight {
			weight = 2
		}
	}

	return table.Digit(sum % 11), nil
}

func validateDigits(digits string) error {
	if digits == "" {
		return pkgerrors.ErrChecksumInput
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return pkgerrors.ErrChecksumInput
		}
	}
	return nil
}
