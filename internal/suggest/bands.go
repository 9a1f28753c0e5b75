package suggest

// Addressing bands bias suggestions toward conventional last-octet schemes:
// gateways low, primary hosts mid-range, backup gear high.
type band struct {
	lo, hi int
}

var bands = []band{
	{1, 20},    // gateway
	{50, 100},  // primary
	{200, 254}, // backup
}

func (b band) contains(octet int) bool {
	return octet >= b.lo && octet <= b.hi
}

func bandOf(octet int) (band, bool) {
	for _, b := range bands {
		if b.contains(octet) {
			return b, true
		}
	}
	return band{}, false
}

func otherBands(octet int) []band {
	others := make([]band, 0, len(bands))
	for _, b := range bands {
		if !b.contains(octet) {
			others = append(others, b)
		}
	}
	return others
}

func clampOctet(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
