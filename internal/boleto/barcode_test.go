package boleto

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fidc/internal/domain"
	pkgerrors "fidc/pkg/errors"
)

func santanderProfile() *domain.BankProfile {
	return &domain.BankProfile{
		ID:            uuid.New(),
		OwnerID:       uuid.New(),
		BankCode:      domain.BankSantander,
		Layout:        domain.LayoutSegmented240,
		Agency:        "3073",
		Account:       "1300123",
		AccountDigit:  "9",
		Wallet:        "101",
		AgreementCode: "1234567",
	}
}

func bmpProfile() *domain.BankProfile {
	return &domain.BankProfile{
		ID:            uuid.New(),
		OwnerID:       uuid.New(),
		BankCode:      domain.BankBMP,
		Layout:        domain.LayoutFlat400,
		Agency:        "0001",
		Account:       "7654321",
		AccountDigit:  "0",
		Wallet:        "109",
		AgreementCode: "556677",
	}
}

func TestDueFactor(t *testing.T) {
	cases := []struct {
		due  time.Time
		want int
	}{
		{time.Date(1997, time.October, 8, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2000, time.July, 3, 0, 0, 0, 0, time.UTC), 1000},
		{time.Date(2025, time.February, 21, 0, 0, 0, 0, time.UTC), 9999},
		// counts past 9999 wrap back into the 1000-9999 window
		{time.Date(2025, time.February, 22, 0, 0, 0, 0, time.UTC), 1000},
		{time.Date(2025, time.February, 23, 0, 0, 0, 0, time.UTC), 1001},
	}

	for _, tc := range cases {
		got, err := DueFactor(tc.due)
		require.NoError(t, err, tc.due)
		assert.Equal(t, tc.want, got, "factor for %s", tc.due.Format("2006-01-02"))
	}
}

func TestDueFactor_BeforeReference(t *testing.T) {
	_, err := DueFactor(time.Date(1997, time.October, 7, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestEncode_BarcodeShape(t *testing.T) {
	due := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

	for _, profile := range []*domain.BankProfile{santanderProfile(), bmpProfile()} {
		enc, err := Encode(profile, 1000000, decimal.RequireFromString("1500.00"), due)
		require.NoError(t, err)

		assert.Len(t, enc.Barcode, 44)
		for _, r := range enc.Barcode {
			assert.True(t, r >= '0' && r <= '9', "barcode must be digits only, got %q", r)
		}

		assert.Equal(t, profile.BankCode, enc.Barcode[:3])
		assert.Equal(t, "9", enc.Barcode[3:4], "currency marker")
		assert.Equal(t, "0000150000", enc.Barcode[9:19], "amount in minor units")
	}
}

func TestEncode_IsPure(t *testing.T) {
	due := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	profile := santanderProfile()

	first, err := Encode(profile, 42, decimal.NewFromInt(10), due)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Encode(profile, 42, decimal.NewFromInt(10), due)
		require.NoError(t, err)
		assert.Equal(t, first.Barcode, again.Barcode)
		assert.Equal(t, first.DigitableLine, again.DigitableLine)
	}
}

func TestEncode_FreeFieldSubLayouts(t *testing.T) {
	due := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

	santander, err := Encode(santanderProfile(), 1000000, decimal.NewFromInt(100), due)
	require.NoError(t, err)
	free := santander.Barcode[19:]
	assert.Equal(t, "9", free[:1], "fixed marker")
	assert.Equal(t, "1234567", free[1:8], "agreement code")
	assert.Equal(t, "0000001000000", free[8:21], "identifier")
	assert.Equal(t, "0", free[21:22])
	assert.Equal(t, "101", free[22:25], "wallet")

	bmp, err := Encode(bmpProfile(), 987, decimal.NewFromInt(100), due)
	require.NoError(t, err)
	free = bmp.Barcode[19:]
	assert.Equal(t, "0001", free[:4], "agency")
	assert.Equal(t, "109", free[4:7], "wallet")
	assert.Equal(t, "00000000987", free[7:18], "identifier")
	assert.Equal(t, "7654321", free[18:25], "account")
}

// Stripping separators and per-field check digits from the digitable line
// must reproduce the barcode exactly.
func TestDigitableLine_RoundTrip(t *testing.T) {
	due := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	for _, profile := range []*domain.BankProfile{santanderProfile(), bmpProfile()} {
		enc, err := Encode(profile, 555001, decimal.RequireFromString("249.90"), due)
		require.NoError(t, err)

		parts := strings.Fields(enc.DigitableLine)
		require.Len(t, parts, 5)

		f1 := strings.ReplaceAll(parts[0], ".", "")
		f2 := strings.ReplaceAll(parts[1], ".", "")
		f3 := strings.ReplaceAll(parts[2], ".", "")
		require.Len(t, f1, 10)
		require.Len(t, f2, 11)
		require.Len(t, f3, 11)
		require.Len(t, parts[3], 1)
		require.Len(t, parts[4], 14)

		// drop the trailing mod-10 digit of each field
		f1, f2, f3 = f1[:9], f2[:10], f3[:10]

		rebuilt := f1[:4] + parts[3] + parts[4] + f1[4:] + f2 + f3
		assert.Equal(t, enc.Barcode, rebuilt)
	}
}

func TestEncode_AmountOverflow(t *testing.T) {
	due := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	huge := decimal.RequireFromString("99999999999") // needs 13 minor-unit digits

	_, err := Encode(santanderProfile(), 1, huge, due)
	assert.ErrorIs(t, err, pkgerrors.ErrFieldOverflow)
}

func TestEncode_UnknownBank(t *testing.T) {
	profile := santanderProfile()
	profile.BankCode = "999"

	_, err := Encode(profile, 1, decimal.NewFromInt(10), time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownBank)
}

func TestIdentifierDigit_PerBankTables(t *testing.T) {
	santander, err := Spec(domain.BankSantander)
	require.NoError(t, err)
	dv, err := santander.IdentifierDigit("101", 1)
	require.NoError(t, err)
	assert.Equal(t, "9", dv) // weighted sum 2, remainder 2, 11-2

	bmp, err := Spec(domain.BankBMP)
	require.NoError(t, err)
	dv, err = bmp.IdentifierDigit("109", 1)
	require.NoError(t, err)
	assert.Equal(t, "9", dv) // base 109 + 11-digit identifier, remainder 2
}

func TestFormattedIdentifier(t *testing.T) {
	spec, err := Spec(domain.BankSantander)
	require.NoError(t, err)

	formatted, err := spec.FormattedIdentifier("101", 1000000)
	require.NoError(t, err)
	assert.Equal(t, "000001000000-3", formatted)
}
