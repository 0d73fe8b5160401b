package inventory

import (
	"encoding/json"
	"strings"

	"github.com/ariefcatur/go-plant-market.git/internal/market"
)

// Direction of a quantity adjustment.
type Direction int

const (
	Increase Direction = iota + 1
	Decrease
)

func (d Direction) String() string {
	switch d {
	case Increase:
		return "increase"
	case Decrease:
		return "decrease"
	default:
		return "unknown"
	}
}

// ParseDirection only accepts the two canonical spellings.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "increase":
		return Increase, nil
	case "decrease":
		return Decrease, nil
	default:
		return 0, market.Invalid("direction", "must be increase or decrease, got "+s)
	}
}

func (d Direction) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Direction) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return market.Invalid("direction", "must be a string")
	}
	v, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
