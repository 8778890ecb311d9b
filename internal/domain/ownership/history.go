package ownership

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransferType string

const (
	TransferSale        TransferType = "SALE"
	TransferGift        TransferType = "GIFT"
	TransferHeredity    TransferType = "HEREDITY"
	TransferConversion  TransferType = "CONVERSION"
	TransferInitial     TransferType = "INITIAL"
	TransferSubdivision TransferType = "SUBDIVISION"
	TransferAdjustment  TransferType = "ADJUSTMENT"
)

// IsUserSelectable reports whether callers may request this type for a transfer.
func (t TransferType) IsUserSelectable() bool {
	switch t {
	case TransferSale, TransferGift, TransferHeredity, TransferConversion:
		return true
	}
	return false
}

// TransferHistory is an append-only record of one ownership movement.
// A nil FromOwnerID means the share came from the unallocated pool.
type TransferHistory struct {
	ID            uint
	ParcelID      uint
	FromOwnerID   *uint
	ToOwnerID     uint
	Share         decimal.Decimal
	TransferType  TransferType
	Price         *decimal.Decimal
	Reference     string
	TransferredAt time.Time
}
