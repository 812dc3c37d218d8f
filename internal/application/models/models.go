package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Beneficiary is the durable application record. There is at most one per
// primary identity number.
type Beneficiary struct {
	ApplicationID   string
	SessionID       string
	PrimaryID       string
	SecondaryID     string
	FullName        string
	DateOfBirth     *time.Time
	Gender          string
	MaritalStatus   string
	Mobile          string
	Email           string
	Address         string
	District        string
	Taluka          string
	Village         string
	AnnualIncome    decimal.Decimal
	IncomeSource    string
	RationCardColor string
	BankAccount     string
	BankIFSC        string
	BankName        string
	SubmittedAt     time.Time
}

// Filing identifies the application on record for an applicant and the
// intake session that filed it.
type Filing struct {
	ApplicationID string
	SessionID     string
}

// DocumentRecord is the structured metadata of one uploaded document, keyed
// by (ApplicationID, Kind).
type DocumentRecord struct {
	ApplicationID string
	Kind          string
	Reference     string
	Fields        map[string]string
	UploadedAt    time.Time
}
