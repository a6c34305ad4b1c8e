package domain

import "fmt"

// Side represents the order side (Buy or Sell)
type Side int

const (
	SideBuy Side = iota
	SideSell
)

// ParseSide maps the wire token ("B" or "S") to a Side
func ParseSide(token string) (Side, error) {
	switch token {
	case "B":
		return SideBuy, nil
	case "S":
		return SideSell, nil
	default:
		return 0, fmt.Errorf("%w: side %q, want B or S", ErrParse, token)
	}
}

// Valid reports whether s is one of the two defined sides
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Opposite returns the side an order of this side trades against
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Token returns the single-letter wire form
func (s Side) Token() string {
	if s == SideSell {
		return "S"
	}
	return "B"
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}
