package gateway

import (
	"fmt"
	"strconv"
	"strings"

	"lightning-cross/domain"
)

// Command is one parsed "<SIDE> <PRICE> <QUANTITY>" request
type Command struct {
	Side     domain.Side
	Price    domain.Price
	Quantity int64
}

// ParseCommand parses a textual order command. Prices are converted to
// ticks at scale; a zero price parses and is left for the book to reject.
func ParseCommand(line string, scale int32) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Command{}, fmt.Errorf("%w: want <SIDE> <PRICE> <QUANTITY>, got %d fields", domain.ErrParse, len(fields))
	}

	side, err := domain.ParseSide(fields[0])
	if err != nil {
		return Command{}, err
	}
	price, err := domain.ParsePrice(fields[1], scale)
	if err != nil {
		return Command{}, err
	}
	quantity, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil || quantity <= 0 {
		return Command{}, fmt.Errorf("%w: quantity %q must be a positive integer", domain.ErrParse, fields[2])
	}

	return Command{Side: side, Price: price, Quantity: quantity}, nil
}

// String renders the command back to wire form
func (c Command) String(scale int32) string {
	return c.Side.Token() + " " + c.Price.Format(scale) + " " + strconv.FormatInt(c.Quantity, 10)
}
