package item

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Price is an exact decimal amount, stored as a string in both json and bson
type Price struct {
	decimal.Decimal
}

func NewPrice(d decimal.Decimal) Price {
	return Price{d}
}

// ParsePrice parses a decimal string such as "12.5"
func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, err
	}
	return Price{d}, nil
}

// MustPrice is ParsePrice for constants, it panics on malformed input
func MustPrice(s string) Price {
	return Price{decimal.RequireFromString(s)}
}

func (p Price) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(p.String())
}

func (p *Price) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	s, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("price: unexpected bson type %s", t)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	p.Decimal = d
	return nil
}

// Max returns the larger of p and q
func (p Price) Max(q Price) Price {
	if q.GreaterThan(p.Decimal) {
		return q
	}
	return p
}
