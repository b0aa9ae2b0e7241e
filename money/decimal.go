package money

import (
	"encoding/json"
	"math/big"
)

// ZatoshiPerZec is the number of zatoshis in one ZEC.
const ZatoshiPerZec = 100_000_000

const OperationPrec = 256

const RoundingMode = big.AwayFromZero

var (
	zecUnit = big.NewFloat(0).SetMode(RoundingMode).SetPrec(OperationPrec).SetUint64(ZatoshiPerZec)
	half    = big.NewFloat(0).SetMode(RoundingMode).SetPrec(OperationPrec).SetFloat64(0.5)
)

// Decimal is the wire representation of a ZEC amount. The backend sends
// decimals for ZEC and integers for zatoshis; Decimal accepts both a raw
// JSON number and a quoted string.
type Decimal struct {
	Value *big.Float
}

func (d *Decimal) FromZatoshis(v uint64) {
	d.Value = big.NewFloat(0).SetMode(RoundingMode).SetPrec(OperationPrec).SetUint64(v)
	d.Value = d.Value.Quo(d.Value, zecUnit)
}

// Zatoshis converts back to the integer unit rounding half-up at 1e8 scale
func (d *Decimal) Zatoshis() (v uint64) {
	if d.Value == nil {
		return 0
	}
	var amountCopy big.Float
	amountCopy.SetMode(RoundingMode).SetPrec(OperationPrec)
	amountCopy.Copy(d.Value)
	amountCopy.Mul(&amountCopy, zecUnit)
	amountCopy.Add(&amountCopy, half)
	asInt, _ := amountCopy.Int(nil)
	return asInt.Uint64()
}

func (d *Decimal) FromString(s string) (err error) {
	d.Value, _, err = big.ParseFloat(s, 10, OperationPrec, RoundingMode)
	if err != nil {
		return err
	}
	return nil
}

func (d *Decimal) Float64() (v float64) {
	if d.Value == nil {
		return 0
	}
	v, _ = d.Value.Float64()
	return v
}

func (d Decimal) String() (s string) {
	if d.Value == nil {
		return "0"
	}
	return d.Value.Text('f', 8)
}

var (
	_ json.Unmarshaler = (*Decimal)(nil)
	_ json.Marshaler   = (*Decimal)(nil)
)

func (d *Decimal) UnmarshalJSON(b []byte) (err error) {
	if len(b) > 1 && b[0] == '"' {
		var asString string
		err = json.Unmarshal(b, &asString)
		if err != nil {
			return err
		}
		return d.FromString(asString)
	}
	return d.FromString(string(b))
}

func (d Decimal) MarshalJSON() (b []byte, err error) {
	if d.Value == nil {
		return []byte("0"), nil
	}
	return []byte(d.Value.Text('f', 8)), nil
}
