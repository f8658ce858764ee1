// Package domain defines the core types of the boleto encoding engine.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// LayoutKind selects one of the two supported remittance file layouts.
type LayoutKind string

const (
	// LayoutSegmented240 is the CNAB 240 layout with P/Q detail segments.
	LayoutSegmented240 LayoutKind = "segmented240"
	// LayoutFlat400 is the CNAB 400 layout with one detail record per instrument.
	LayoutFlat400 LayoutKind = "flat400"
)

// Width returns the fixed line width of the layout in characters.
func (k LayoutKind) Width() int {
	if k == LayoutFlat400 {
		return 400
	}
	return 240
}

// Bank codes of the two supported institutions.
const (
	BankSantander = "033"
	BankBMP       = "274"
)

// BankProfile is the per (owner, bank) contract configuration. Its two
// counters are mutated only through the allocator under row locking.
type BankProfile struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	OwnerID          uuid.UUID  `json:"owner_id" db:"owner_id"`
	OwnerName        string     `json:"owner_name" db:"owner_name"`
	OwnerDocument    string     `json:"owner_document" db:"owner_document"`
	BankCode         string     `json:"bank_code" db:"bank_code"`
	Layout           LayoutKind `json:"layout" db:"layout"`
	Agency           string     `json:"agency" db:"agency"`
	Account          string     `json:"account" db:"account"`
	AccountDigit     string     `json:"account_digit" db:"account_digit"`
	Wallet           string     `json:"wallet" db:"wallet"`
	AgreementCode    string     `json:"agreement_code" db:"agreement_code"`
	TransmissionCode string     `json:"transmission_code" db:"transmission_code"`

	MinIdentifier     int64 `json:"min_identifier" db:"min_identifier"`
	MaxIdentifier     int64 `json:"max_identifier" db:"max_identifier"`
	CurrentIdentifier int64 `json:"current_identifier" db:"current_identifier"`
	CurrentSequence   int64 `json:"current_sequence" db:"current_sequence"`

	InterestMonthlyPercent decimal.Decimal `json:"interest_monthly_percent" db:"interest_monthly_percent"`
	FinePercent            decimal.Decimal `json:"fine_percent" db:"fine_percent"`
	ProtestDays            int             `json:"protest_days" db:"protest_days"`
	WriteOffDays           int             `json:"write_off_days" db:"write_off_days"`

	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// InstrumentStatus represents the lifecycle of a payable instrument.
type InstrumentStatus string

const (
	StatusPending    InstrumentStatus = "pending"
	StatusApproved   InstrumentStatus = "approved"
	StatusCancelled  InstrumentStatus = "cancelled"
	StatusRegistered InstrumentStatus = "registered"
)

// CanTransitionTo enforces the instrument lifecycle. Cancelled and
// registered are terminal.
func (s InstrumentStatus) CanTransitionTo(next InstrumentStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusCancelled
	case StatusApproved:
		return next == StatusRegistered || next == StatusCancelled
	default:
		return false
	}
}

// PayableInstrument is a boleto: one payer, one amount, one identifier. The
// barcode and digitable line are computed once and never change afterwards.
type PayableInstrument struct {
	ID       uuid.UUID `json:"id" db:"id"`
	OwnerID  uuid.UUID `json:"owner_id" db:"owner_id"`
	BankCode string    `json:"bank_code" db:"bank_code"`

	PayerName     string `json:"payer_name" db:"payer_name"`
	PayerDocument string `json:"payer_document" db:"payer_document"`
	PayerAddress  string `json:"payer_address" db:"payer_address"`
	PayerDistrict string `json:"payer_district" db:"payer_district"`
	PayerCity     string `json:"payer_city" db:"payer_city"`
	PayerState    string `json:"payer_state" db:"payer_state"`
	PayerZip      string `json:"payer_zip" db:"payer_zip"`

	Amount      decimal.Decimal `json:"amount" db:"amount"`
	DueDate     time.Time       `json:"due_date" db:"due_date"`
	IssueDate   time.Time       `json:"issue_date" db:"issue_date"`
	SpeciesCode string          `json:"species_code" db:"species_code"`

	Identifier      int64  `json:"identifier" db:"identifier"`
	IdentifierDigit string `json:"identifier_digit" db:"identifier_digit"`
	Barcode         string `json:"barcode" db:"barcode"`
	DigitableLine   string `json:"digitable_line" db:"digitable_line"`

	SourceRefs pq.StringArray `json:"source_refs" db:"source_refs"`

	Status    InstrumentStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

// RemittanceBatch is an immutable record of one generated remittance file.
type RemittanceBatch struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	OwnerID        uuid.UUID   `json:"owner_id" db:"owner_id"`
	BankCode       string      `json:"bank_code" db:"bank_code"`
	Layout         LayoutKind  `json:"layout" db:"layout"`
	Sequence       int64       `json:"sequence" db:"sequence"`
	Filename       string      `json:"filename" db:"filename"`
	Content        []byte      `json:"-" db:"content"`
	RecordCount    int         `json:"record_count" db:"record_count"`
	InstrumentIDs  []uuid.UUID `json:"instrument_ids" db:"-"`
	GeneratedAt    time.Time   `json:"generated_at" db:"generated_at"`
}

// InstrumentRequest is a normalized inbound request, already parsed and
// grouped by the invoice collaborator.
type InstrumentRequest struct {
	PayerName     string          `json:"payer_name" validate:"required,max=200"`
	PayerDocument string          `json:"payer_document" validate:"required,cpfcnpj"`
	PayerAddress  string          `json:"payer_address" validate:"max=200"`
	PayerDistrict string          `json:"payer_district" validate:"max=100"`
	PayerCity     string          `json:"payer_city" validate:"max=100"`
	PayerState    string          `json:"payer_state" validate:"max=2"`
	PayerZip      string          `json:"payer_zip" validate:"max=10"`
	Amount        decimal.Decimal `json:"amount" validate:"required,gt=0"`
	DueDate       time.Time       `json:"due_date" validate:"required"`
	Species       string          `json:"species" validate:"max=10"`
	SourceRef     string          `json:"source_ref" validate:"required,max=50"`
}
