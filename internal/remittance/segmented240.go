package remittance

import (
	"time"

	"github.com/shopspring/decimal"

	"fidc/internal/cnab"
	"fidc/internal/domain"
	pkgerrors "fidc/pkg/errors"
)

const (
	width240       = 240
	santanderName  = "BANCO SANTANDER"
	layoutFile240  = "040"
	layoutBatch240 = "030"
)

// segmented240 assembles the Santander CNAB 240 layout: file header, batch
// header, one P and one Q segment per instrument, batch trailer, file
// trailer. Record type sits at position 8 and the segment letter at 14.
type segmented240 struct{}

func (a *segmented240) Assemble(profile *domain.BankProfile, instruments []*domain.PayableInstrument, sequence int, generated time.Time) ([]string, error) {
	transmission, err := transmissionCode(profile)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, 4+2*len(instruments))

	header, err := a.fileHeader(profile, transmission, sequence, generated)
	if err != nil {
		return nil, err
	}
	lines = append(lines, header)

	batchHeader, err := a.batchHeader(profile, transmission, sequence, generated)
	if err != nil {
		return nil, err
	}
	lines = append(lines, batchHeader)

	seq := 1
	for _, inst := range instruments {
		segP, err := a.segmentP(profile, inst, seq, generated)
		if err != nil {
			return nil, pkgerrors.ForInstrument(inst.ID.String(), err)
		}
		lines = append(lines, segP)
		seq++

		segQ, err := a.segmentQ(inst, seq)
		if err != nil {
			return nil, pkgerrors.ForInstrument(inst.ID.String(), err)
		}
		lines = append(lines, segQ)
		seq++
	}

	batchTrailer, err := a.batchTrailer(len(instruments))
	if err != nil {
		return nil, err
	}
	lines = append(lines, batchTrailer)

	fileTrailer, err := a.fileTrailer(len(instruments))
	if err != nil {
		return nil, err
	}
	lines = append(lines, fileTrailer)

	return lines, nil
}

// transmissionCode is the 15-position channel identifier. Profiles without
// an assigned code fall back to agency, account and account digit.
func transmissionCode(p *domain.BankProfile) (string, error) {
	if p.TransmissionCode != "" {
		return cnab.FormatDigits(p.TransmissionCode, 15)
	}
	b := cnab.NewLine(15)
	b.Digits(p.Agency, 4).
		Blank(1).
		Digits(p.Account, 9).
		Text(p.AccountDigit, 1)
	return b.Build()
}

func (a *segmented240) fileHeader(p *domain.BankProfile, transmission string, sequence int, generated time.Time) (string, error) {
	b := cnab.NewLine(width240)
	b.Literal(domain.BankSantander).
		Literal("0000").
		Literal("0").
		Blank(8).
		Literal(documentType(p.OwnerDocument)).
		Digits(p.OwnerDocument, 15).
		Literal(transmission).
		Blank(25).
		Text(p.OwnerName, 30).
		Text(santanderName, 30).
		Blank(10).
		Literal("1"). // remessa
		Date(generated, "02012006").
		Blank(6).
		Numeric(int64(sequence), 6).
		Literal(layoutFile240).
		Blank(74)
	return b.Build()
}

func (a *segmented240) batchHeader(p *domain.BankProfile, transmission string, sequence int, generated time.Time) (string, error) {
	b := cnab.NewLine(width240)
	b.Literal(domain.BankSantander).
		Literal("0001").
		Literal("1").
		Literal("R").
		Literal("01"). // cobranca
		Blank(2).
		Literal(layoutBatch240).
		Blank(1).
		Literal(documentType(p.OwnerDocument)).
		Digits(p.OwnerDocument, 15).
		Blank(20).
		Literal(transmission).
		Blank(5).
		Text(p.OwnerName, 30).
		Blank(40). // message 1
		Blank(40). // message 2
		Numeric(int64(sequence), 8).
		Date(generated, "02012006").
		Blank(41)
	return b.Build()
}

func (a *segmented240) segmentP(p *domain.BankProfile, inst *domain.PayableInstrument, seq int, generated time.Time) (string, error) {
	b := cnab.NewLine(width240)
	b.Literal(domain.BankSantander).
		Literal("0001").
		Literal("3").
		Numeric(int64(seq), 5).
		Literal("P").
		Blank(1).
		Literal("01"). // entrada
		Digits(p.Agency, 4).
		Literal("0").
		Digits(p.Account, 9).
		Text(p.AccountDigit, 1).
		Zeros(9). // cobranca account, unused
		Literal("0").
		Blank(2).
		Numeric(inst.Identifier, 13).
		Literal("5"). // cobranca rapida com registro
		Literal("1"). // registrada
		Literal("1"). // documento tradicional
		Blank(2).
		Text(inst.ID.String(), 15).
		Date(inst.DueDate, "02012006").
		Amount(inst.Amount, 15).
		Literal("0000"). // any collecting agency
		Literal("0").
		Blank(1).
		Digits(speciesOr(inst.SpeciesCode), 2).
		Literal("N").
		Date(issueDateOr(inst.IssueDate, generated), "02012006")

	if p.InterestMonthlyPercent.IsPositive() {
		b.Literal("1"). // fixed amount per day
			Zeros(8).
			Amount(dailyInterest(inst.Amount, p.InterestMonthlyPercent), 15)
	} else {
		b.Literal("0").
			Zeros(8).
			Zeros(15)
	}

	b.Literal("0"). // no discount
		Zeros(8).
		Zeros(15).
		Zeros(15). // IOF
		Zeros(15). // rebate
		Text(inst.ID.String(), 25)

	if p.ProtestDays > 0 {
		b.Literal("1").Numeric(int64(p.ProtestDays), 2)
	} else {
		b.Literal("3").Literal("00")
	}
	if p.WriteOffDays > 0 {
		b.Literal("1").Literal("0").Numeric(int64(p.WriteOffDays), 2)
	} else {
		b.Literal("1").Literal("0").Literal("90")
	}

	b.Literal("09"). // BRL
		Blank(11)
	return b.Build()
}

func (a *segmented240) segmentQ(inst *domain.PayableInstrument, seq int) (string, error) {
	zip := zip8(inst.PayerZip)

	b := cnab.NewLine(width240)
	b.Literal(domain.BankSantander).
		Literal("0001").
		Literal("3").
		Numeric(int64(seq), 5).
		Literal("Q").
		Blank(1).
		Literal("01").
		Literal(documentType(inst.PayerDocument)).
		Digits(inst.PayerDocument, 15).
		Text(inst.PayerName, 40).
		Text(inst.PayerAddress, 40).
		Text(inst.PayerDistrict, 15).
		Digits(zip[:5], 5).
		Digits(zip[5:], 3).
		Text(inst.PayerCity, 15).
		Text(inst.PayerState, 2).
		Literal("0"). // no guarantor
		Zeros(15).
		Blank(40).
		Blank(12).
		Blank(19)
	return b.Build()
}

func (a *segmented240) batchTrailer(instrumentCount int) (string, error) {
	b := cnab.NewLine(width240)
	b.Literal(domain.BankSantander).
		Literal("0001").
		Literal("5").
		Blank(9).
		Numeric(int64(2+2*instrumentCount), 6).
		Blank(217)
	return b.Build()
}

func (a *segmented240) fileTrailer(instrumentCount int) (string, error) {
	b := cnab.NewLine(width240)
	b.Literal(domain.BankSantander).
		Literal("9999").
		Literal("9").
		Blank(9).
		Numeric(1, 6).
		Numeric(int64(4+2*instrumentCount), 6).
		Blank(211)
	return b.Build()
}

// dailyInterest converts a monthly interest percentage into the fixed daily
// amount the position expects.
func dailyInterest(amount, monthlyPercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(monthlyPercent).Div(decimal.NewFromInt(3000))
}

func issueDateOr(issue, fallback time.Time) time.Time {
	if issue.IsZero() {
		return fallback
	}
	return issue
}
