package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in    string
		scale int32
		want  Price
	}{
		{"100", 2, 10000},
		{"100.25", 2, 10025},
		{"100.5", 2, 10050},
		{"0", 2, 0},
		{"0.01", 2, 1},
		{"42", 0, 42},
		{"1.2300", 2, 123},
	}
	for _, tc := range cases {
		got, err := ParsePrice(tc.in, tc.scale)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParsePriceRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "100.001", "1e30", "92233720368547758.08", "1e-900000000"} {
		_, err := ParsePrice(in, 2)
		assert.ErrorIs(t, err, ErrParse, in)
	}
}

// Extreme exponents must fail or succeed without expanding the number
func TestParsePriceExtremeExponents(t *testing.T) {
	cases := []struct {
		in      string
		want    Price
		wantErr bool
	}{
		{"1e900000000", 0, true},
		{"-1e900000000", 0, true},
		{"9e2000000000", 0, true},
		{"1e-900000000", 0, true},
		{"12345e-900000000", 0, true},
		{"0e-900000000", 0, false},
		{"0e900000000", 0, false},
		{"1e16", 1e18, false},
		{"100000000000000000000e-20", 100, false},
		{"1000e-5", 1, false},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, tc := range cases {
			got, err := ParsePrice(tc.in, 2)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrParse, tc.in)
				if err != nil {
					assert.Less(t, len(err.Error()), 200, tc.in)
				}
				continue
			}
			assert.NoError(t, err, tc.in)
			assert.Equal(t, tc.want, got, tc.in)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ParsePrice did not return promptly for extreme exponents")
	}
}

// Equal economic prices always map to the same ladder key
func TestParsePriceCanonical(t *testing.T) {
	a, err := ParsePrice("0.30", 2)
	require.NoError(t, err)
	b, err := ParsePrice("0.3", 2)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPriceFormat(t *testing.T) {
	assert.Equal(t, "100.25", Price(10025).Format(2))
	assert.Equal(t, "100.00", Price(10000).Format(2))
	assert.Equal(t, "7", Price(7).Format(0))
}

func TestParseSide(t *testing.T) {
	side, err := ParseSide("B")
	require.NoError(t, err)
	assert.Equal(t, SideBuy, side)

	side, err = ParseSide("S")
	require.NoError(t, err)
	assert.Equal(t, SideSell, side)
	assert.Equal(t, SideBuy, side.Opposite())

	for _, in := range []string{"b", "BUY", "", "X"} {
		_, err := ParseSide(in)
		assert.ErrorIs(t, err, ErrParse, in)
	}
}

func TestTradeMakerFlag(t *testing.T) {
	resting := NewTrade(1, 5, 2, 100, 1)
	assert.True(t, resting.IsBuyerMaker)
	assert.Equal(t, "T1", resting.ID())
	assert.Equal(t, uint64(5), resting.OrderIDFor(SideSell))
	assert.Equal(t, uint64(2), resting.OrderIDFor(SideBuy))

	aggressive := NewTrade(2, 1, 9, 100, 1)
	assert.False(t, aggressive.IsBuyerMaker)
}
