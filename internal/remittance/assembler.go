// Package remittance turns a set of payable instruments into a bank
// remittance file: fixed-width lines per the profile's layout, rendered in
// the target charset and stamped with the profile's sequence counter.
package remittance

import (
	"time"

	"fidc/internal/domain"
	pkgerrors "fidc/pkg/errors"
)

// Assembler produces every line of one remittance file for a single layout.
// Implementations are stateless; the sequence number is the file counter the
// bank uses to detect duplicate submissions.
type Assembler interface {
	Assemble(profile *domain.BankProfile, instruments []*domain.PayableInstrument, sequence int, generated time.Time) ([]string, error)
}

// ForLayout selects the assembly strategy for a profile's layout kind.
func ForLayout(kind domain.LayoutKind) (Assembler, error) {
	switch kind {
	case domain.LayoutSegmented240:
		return &segmented240{}, nil
	case domain.LayoutFlat400:
		return &flat400{}, nil
	default:
		return nil, pkgerrors.Wrap(pkgerrors.ErrUnknownLayout, string(kind))
	}
}

// documentType distinguishes natural and legal person documents by length.
func documentType(document string) string {
	if len(document) > 11 {
		return "2"
	}
	return "1"
}

// zip8 normalizes a postal code to its 8 bare digits.
func zip8(zip string) string {
	out := make([]byte, 0, 8)
	for i := 0; i < len(zip); i++ {
		if zip[i] >= '0' && zip[i] <= '9' {
			out = append(out, zip[i])
		}
	}
	for len(out) < 8 {
		out = append([]byte{'0'}, out...)
	}
	return string(out[:8])
}

// speciesOr falls back to duplicata de servico (04) when the instrument
// carries no species code.
func speciesOr(code string) string {
	if code == "" {
		return "04"
	}
	return code
}
