package cnab

import (
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	pkgerrors "fidc/pkg/errors"
)

// LineTerminator is the record separator banking systems expect.
const LineTerminator = "\r\n"

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize reduces text to the printable ASCII subset of ISO-8859-1:
// diacritics are stripped to their base letter and anything else outside the
// printable range becomes a space.
func Normalize(text string) string {
	stripped, _, err := transform.String(stripAccents, text)
	if err != nil {
		stripped = text
	}

	return strings.Map(func(r rune) rune {
		if r >= 0x20 && r <= 0x7e {
			return r
		}
		return ' '
	}, stripped)
}

// RenderFile joins records with the banking line terminator and encodes the
// result in the single-byte target charset. Records reach this point already
// normalized, so encoding failures indicate a defect upstream.
func RenderFile(lines []string) ([]byte, error) {
	joined := strings.Join(lines, LineTerminator)

	encoded, err := charmap.ISO8859_1.NewEncoder().String(joined)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to encode remittance file")
	}
	return []byte(encoded), nil
}
