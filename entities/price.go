package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceTarget is a brokerage price target. The remote API sends it either as
// a JSON number or as a currency string like "$7.00". It encodes back in the
// form it arrived in; an empty target encodes as null.
type PriceTarget struct {
	Raw   string
	Value decimal.Decimal
	Valid bool

	numeric bool
}

func NewPriceTarget(raw string) PriceTarget {
	p := PriceTarget{Raw: raw}

	cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return p
	}

	v, err := decimal.NewFromString(cleaned)
	if err != nil {
		return p
	}

	p.Value = v
	p.Valid = true
	return p
}

func (p *PriceTarget) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = PriceTarget{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode price target: %w", err)
		}
		*p = NewPriceTarget(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode price target: %w", err)
	}

	*p = NewPriceTarget(n.String())
	p.numeric = true
	return nil
}

func (p PriceTarget) MarshalJSON() ([]byte, error) {
	switch {
	case p.Raw == "":
		return []byte("null"), nil
	case p.numeric:
		return []byte(p.Raw), nil
	}

	return json.Marshal(p.Raw)
}

func (p PriceTarget) String() string {
	return p.Raw
}
