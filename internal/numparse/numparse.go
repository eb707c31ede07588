// Package numparse reads the free-form character counts members type into the chat.
package numparse

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidNumber is returned when the text is not a recognisable count.
var ErrInvalidNumber = errors.New("numparse: invalid number")

const thousand = 1000

// digits, optional fraction, optional thousands suffix. Input is already
// lower-cased with whitespace stripped and commas turned into dots.
var grammar = regexp.MustCompile(`^([0-9]+)(?:\.([0-9]*))?(k|к|тыс\.?)?$`)

// Parse converts text such as "2500", "5,3к", "2.7k" or "1.5 тыс." into a
// non-negative integer. A thousands suffix multiplies by 1000, fractional
// remainders are truncated.
func Parse(text string) (int, error) {
	normalized := normalize(text)
	if normalized == "" {
		return 0, ErrInvalidNumber
	}

	m := grammar.FindStringSubmatch(normalized)
	if m == nil {
		return 0, ErrInvalidNumber
	}
	whole, frac, suffix := m[1], m[2], m[3]

	n, err := strconv.Atoi(whole)
	if err != nil {
		return 0, ErrInvalidNumber
	}
	if suffix == "" {
		return n, nil
	}

	if n > (math.MaxInt-(thousand-1))/thousand {
		return 0, ErrInvalidNumber
	}
	return n*thousand + thousandths(frac), nil
}

func normalize(text string) string {
	s := strings.Join(strings.Fields(text), "")
	s = strings.ReplaceAll(s, ",", ".")
	return strings.ToLower(s)
}

// thousandths returns the first three fractional digits as an integer,
// right-padded with zeros: "3" -> 300, "29" -> 290, "1234" -> 123.
func thousandths(frac string) int {
	if len(frac) > 3 {
		frac = frac[:3]
	}
	for len(frac) < 3 {
		frac += "0"
	}
	v, _ := strconv.Atoi(frac)
	return v
}
