// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// Counter allocation errors
	ErrRangeExhausted = errors.New("identifier range exhausted")

	// Fixed-width encoding errors
	ErrFieldOverflow      = errors.New("numeric field overflows its width")
	ErrLineLengthMismatch = errors.New("assembled line length does not match layout width")
	ErrChecksumInput      = errors.New("checksum input must contain only digits")

	// Bank profile errors
	ErrBankProfileNotFound = errors.New("bank profile not found")
	ErrBankProfileInactive = errors.New("bank profile is inactive")
	ErrUnknownBank         = errors.New("unknown bank code")
	ErrUnknownLayout       = errors.New("unknown remittance layout")

	// Instrument errors
	ErrInstrumentNotFound = errors.New("instrument not found")
	ErrInvalidTransition  = errors.New("invalid instrument status transition")
	ErrEmptyBatch         = errors.New("remittance batch contains no instruments")

	// Batch errors
	ErrBatchNotFound = errors.New("remittance batch not found")
)

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// InstrumentError identifies the instrument that made a batch fail and the
// taxonomy error that caused it.
type InstrumentError struct {
	InstrumentID string
	Field        string
	Err          error
}

func (e *InstrumentError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("instrument %s: field %s: %v", e.InstrumentID, e.Field, e.Err)
	}
	return fmt.Sprintf("instrument %s: %v", e.InstrumentID, e.Err)
}

func (e *InstrumentError) Unwrap() error {
	return e.Err
}

// ForInstrument tags err with the failing instrument id.
func ForInstrument(instrumentID string, err error) error {
	if err == nil {
		return nil
	}
	return &InstrumentError{InstrumentID: instrumentID, Err: err}
}

// ForField tags err with the failing instrument id and field name.
func ForField(instrumentID, field string, err error) error {
	if err == nil {
		return nil
	}
	return &InstrumentError{InstrumentID: instrumentID, Field: field, Err: err}
}
