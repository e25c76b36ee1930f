package wifi

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sarchlab/wavesim/sim"
)

// DefaultPhyMode is the mode used when none is given.
const DefaultPhyMode = "OfdmRate6MbpsBW10MHz"

var phyModeRate = regexp.MustCompile(`Rate(\d+(?:_\d+)?)Mbps`)

// ParsePhyMode extracts the data rate from a mode name such as
// OfdmRate6MbpsBW10MHz or OfdmRate4_5MbpsBW10MHz.
func ParsePhyMode(mode string) (sim.DataRate, bool) {
	m := phyModeRate.FindStringSubmatch(mode)
	if m == nil {
		return 0, false
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], "_", "."), 64)
	if err != nil || v <= 0 {
		return 0, false
	}

	return sim.DataRate(v) * sim.Mbps, true
}
