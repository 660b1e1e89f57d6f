package types

import (
	"fmt"
	"math"
	"strconv"
)

// maxDenominator bounds the denominators ParseFloat32 considers. Playback
// speeds in TransportPlaySpeed are small fractions like "1/2" or "3/2".
const maxDenominator = 10

// A Rat represents a quotient a/b.
type Rat struct {
	a, b int
}

// ParseFloat32 returns the Rat closest to x with a denominator of at most
// 10. Ties go to the smaller denominator.
func ParseFloat32(x float32) *Rat {
	f := float64(x)

	best, bestErr := &Rat{int(math.Round(f)), 1}, math.Abs(f-math.Round(f))
	for b := 2; b <= maxDenominator; b++ {
		a := math.Round(f * float64(b))
		if e := math.Abs(f - a/float64(b)); e < bestErr {
			best, bestErr = &Rat{int(a), b}, e
		}
	}

	return best.reduce()
}

// ParseRat parses a string in the form "a/b" or "a".
func ParseRat(s string) (*Rat, error) {
	var a, b int
	if _, err := fmt.Sscanf(s, "%d/%d", &a, &b); err == nil {
		if b == 0 {
			return nil, fmt.Errorf("types: zero denominator in %q", s)
		}
		return (&Rat{a, b}).reduce(), nil
	}

	a, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("types: invalid rational %q", s)
	}

	return &Rat{a, 1}, nil
}

func (x *Rat) reduce() *Rat {
	if x.b < 0 {
		x.a, x.b = -x.a, -x.b
	}

	a, b := x.a, x.b
	if a < 0 {
		a = -a
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a > 1 {
		x.a, x.b = x.a/a, x.b/a
	}

	return x
}

// Float64 returns the value of x.
func (x *Rat) Float64() float64 {
	return float64(x.a) / float64(x.b)
}

// String returns a string representation in the form "a/b" if b != 1,
// and in the form "a" if b == 1.
func (x *Rat) String() string {
	if x.b == 1 {
		return strconv.Itoa(x.a)
	}

	return fmt.Sprintf("%d/%d", x.a, x.b)
}
