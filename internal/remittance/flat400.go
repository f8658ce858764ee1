package remittance

import (
	"time"

	"fidc/internal/cnab"
	"fidc/internal/domain"
	pkgerrors "fidc/pkg/errors"
)

const (
	width400 = 400
	bmpName  = "BMP MONEY PLUS"
)

// flat400 assembles the BMP CNAB 400 layout: one header, one detail record
// per instrument and one trailer, every record carrying its sequence number
// in the last six positions.
type flat400 struct{}

func (a *flat400) Assemble(profile *domain.BankProfile, instruments []*domain.PayableInstrument, sequence int, generated time.Time) ([]string, error) {
	lines := make([]string, 0, 2+len(instruments))

	header, err := a.header(profile, sequence, generated)
	if err != nil {
		return nil, err
	}
	lines = append(lines, header)

	seq := 2
	for _, inst := range instruments {
		detail, err := a.detail(profile, inst, seq, generated)
		if err != nil {
			return nil, pkgerrors.ForInstrument(inst.ID.String(), err)
		}
		lines = append(lines, detail)
		seq++
	}

	trailer, err := a.trailer(seq)
	if err != nil {
		return nil, err
	}
	lines = append(lines, trailer)

	return lines, nil
}

func (a *flat400) header(p *domain.BankProfile, sequence int, generated time.Time) (string, error) {
	b := cnab.NewLine(width400)
	b.Literal("0").
		Literal("1"). // remessa
		Literal("REMESSA").
		Literal("01").
		Text("COBRANCA", 15).
		Text(p.AgreementCode, 20).
		Text(p.OwnerName, 30).
		Literal(domain.BankBMP).
		Text(bmpName, 15).
		Date(generated, "020106").
		Blank(8).
		Literal("MX").
		Numeric(int64(sequence), 7).
		Blank(277).
		Numeric(1, 6)
	return b.Build()
}

func (a *flat400) detail(p *domain.BankProfile, inst *domain.PayableInstrument, seq int, generated time.Time) (string, error) {
	wallet := p.Wallet
	if wallet == "" {
		wallet = "109"
	}

	b := cnab.NewLine(width400)
	b.Literal("1").
		Literal("02"). // beneficiary is a legal person
		Digits(p.OwnerDocument, 14).
		Literal("0").
		Literal("0").
		Blank(1).
		Literal("0").
		Digits(wallet, 3).
		Digits(p.Agency, 5).
		Digits(p.Account, 7).
		Text(p.AccountDigit, 1).
		Text(inst.ID.String(), 25).
		Zeros(8).
		Numeric(inst.Identifier, 11).
		Text(inst.IdentifierDigit, 1).
		Zeros(10).
		Literal("2"). // beneficiary prints the slip
		Literal("N").
		Blank(13).
		Literal("I"). // integrated wallet
		Literal("01"). // registration
		Text(inst.ID.String(), 10).
		Date(inst.DueDate, "020106").
		Amount(inst.Amount, 13).
		Literal(domain.BankBMP).
		Literal("00000"). // any collecting agency
		Digits(speciesOr(inst.SpeciesCode), 2).
		Literal("N").
		Date(issueDateOr(inst.IssueDate, generated), "020106").
		Literal(a.firstInstruction(p)).
		Literal("00")

	if p.InterestMonthlyPercent.IsPositive() {
		b.Amount(dailyInterest(inst.Amount, p.InterestMonthlyPercent), 13)
	} else {
		b.Zeros(13)
	}

	zip := zip8(inst.PayerZip)
	b.Zeros(6). // no discount date
		Zeros(13). // discount
		Zeros(13). // IOF
		Zeros(13). // rebate
		Literal("0").
		Literal(documentType(inst.PayerDocument)).
		Digits(inst.PayerDocument, 14).
		Text(inst.PayerName, 40).
		Text(inst.PayerAddress, 40).
		Text(inst.PayerDistrict, 12).
		Digits(zip, 8).
		Text(inst.PayerCity, 15).
		Text(inst.PayerState, 2).
		Blank(42). // guarantor
		Literal("0"). // BRL
		Numeric(int64(seq), 6)
	return b.Build()
}

func (a *flat400) trailer(seq int) (string, error) {
	b := cnab.NewLine(width400)
	b.Literal("9").
		Blank(393).
		Numeric(int64(seq), 6)
	return b.Build()
}

// firstInstruction picks the occurrence instruction from the profile's
// protest and write-off configuration.
func (a *flat400) firstInstruction(p *domain.BankProfile) string {
	switch {
	case p.ProtestDays > 0:
		return "09" // protest
	case p.WriteOffDays > 0:
		return "15" // return after due
	default:
		return "00"
	}
}
