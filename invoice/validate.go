package invoice

import (
	"errors"
	"strings"
)

var (
	ErrAddressTooLong  = errors.New("address is too long")
	ErrInvalidAddress  = errors.New("must be a valid Zcash address (u1, utest1, zs1, t1, or t3)")
	ErrRefundNotOpen   = errors.New("refund address can no longer be changed")
	ErrInvoiceNotFound = errors.New("invoice not found")
)

var addressPrefixes = []string{"u1", "utest1", "zs1", "ztestsapling", "t1", "t3"}

const maxAddressLength = 500

// ValidateAddress checks a buyer supplied Zcash address before any network
// call is made with it.
func ValidateAddress(addr string) (err error) {
	if len(addr) > maxAddressLength {
		return ErrAddressTooLong
	}
	for _, prefix := range addressPrefixes {
		if strings.HasPrefix(addr, prefix) {
			return nil
		}
	}
	return ErrInvalidAddress
}

// RefundAddressMutable reports whether the buyer may still change the refund
// address for the current status.
func (i *Invoice) RefundAddressMutable() (ok bool) {
	switch i.Status {
	case StatusPending, StatusConfirmed, StatusExpired:
		return true
	}
	return false
}
