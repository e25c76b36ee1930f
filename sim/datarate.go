package sim

import (
	"fmt"
	"log"
	"strconv"
	"strings"
)

// DataRate defines the speed of a link in bits per second.
type DataRate float64

// Defines the unit of data rate
const (
	Bps  DataRate = 1
	Kbps DataRate = 1e3
	Mbps DataRate = 1e6
	Gbps DataRate = 1e9
)

// TxTime returns the time it takes to put the given number of bytes onto the
// link.
func (r DataRate) TxTime(bytes int) VTimeInSec {
	if r <= 0 {
		log.Panic("data rate must be positive")
	}

	return VTimeInSec(float64(bytes) * 8 / float64(r))
}

// String formats the data rate with the largest unit that keeps it at or
// above one.
func (r DataRate) String() string {
	switch {
	case r >= Gbps:
		return strconv.FormatFloat(float64(r/Gbps), 'g', -1, 64) + "Gbps"
	case r >= Mbps:
		return strconv.FormatFloat(float64(r/Mbps), 'g', -1, 64) + "Mbps"
	case r >= Kbps:
		return strconv.FormatFloat(float64(r/Kbps), 'g', -1, 64) + "Kbps"
	default:
		return strconv.FormatFloat(float64(r), 'g', -1, 64) + "bps"
	}
}

// ParseDataRate parses strings such as "5Mbps", "100kbps" or "1Gbps".
func ParseDataRate(s string) (DataRate, error) {
	units := []struct {
		suffix string
		unit   DataRate
	}{
		{"Gbps", Gbps},
		{"Mbps", Mbps},
		{"Kbps", Kbps},
		{"kbps", Kbps},
		{"bps", Bps},
	}

	for _, u := range units {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}

		num := strings.TrimSuffix(s, u.suffix)

		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid data rate %q: %w", s, err)
		}

		return DataRate(v) * u.unit, nil
	}

	return 0, fmt.Errorf("invalid data rate %q: unknown unit", s)
}
