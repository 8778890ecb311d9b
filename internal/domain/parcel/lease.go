package parcel

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeaseAgreement records the lease terms of a LEASE-tenure parcel. Amounts
// are stored as registered; no amortization is computed.
type LeaseAgreement struct {
	ID               uint
	ParcelID         uint
	LeasedArea       decimal.Decimal
	TotalLeaseAmount decimal.Decimal
	DownPayment      decimal.Decimal
	StartDate        time.Time
	ExpiryDate       time.Time
	ContractDate     *time.Time
	Status           string
	CreatedAt        time.Time
}

const LeaseStatusActive = "ACTIVE"
