package invoice

import (
	"errors"
)

var ErrMissingStatus = errors.New("delta is missing the status field")

// Delta is a partial update streamed by the backend. Only the fields listed
// here may ever be merged into an Invoice; anything else in the payload is
// dropped by the JSON decoder.
type Delta struct {
	Status           Status  `json:"status"`
	Txid             string  `json:"txid,omitempty"`
	ReceivedZatoshis *uint64 `json:"received_zatoshis,omitempty"`
	PriceZatoshis    *uint64 `json:"price_zatoshis,omitempty"`
}

// Apply merges a streamed delta into the invoice. The client is a passive
// reducer: it takes the reported status as is and never invents one. A delta
// without a status is malformed and leaves the invoice untouched. A known
// txid is never cleared by a later delta that omits it.
func (i *Invoice) Apply(delta Delta) (err error) {
	if delta.Status == "" {
		return ErrMissingStatus
	}

	i.Status = delta.Status
	if delta.Txid != "" {
		i.DetectedTxid = delta.Txid
	}
	if delta.ReceivedZatoshis != nil {
		i.ReceivedZatoshis = *delta.ReceivedZatoshis
	}
	if delta.PriceZatoshis != nil {
		i.PriceZatoshis = *delta.PriceZatoshis
	}
	return nil
}
