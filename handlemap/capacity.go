package handlemap

// primeCapacities are the first rungs of the table's growth schedule,
// each roughly double the last, starting at 11. Primality only matters
// for modulo-based range reduction; homeIndex uses a widening multiply
// instead, so these values are chosen for their doubling spacing more
// than for strict primality, and the schedule switches to an
// algorithmic doubling once it runs out rather than hand-maintaining an
// table out to 2^64.
var primeCapacities = []int{
	11, 23, 47, 97, 197, 397, 797, 1597, 3203, 6421,
	12853, 25717, 51437, 102877, 205759, 411527, 823117,
	1646237, 3292489, 6584983, 13169977, 26339969, 52679969,
}

// nextCapacity returns the smallest growth-schedule capacity able to
// hold minLive elements under loadFactorCap.
func nextCapacity(minLive int) int {
	need := int(float64(minLive)/loadFactorCap) + reservedSlots + 1

	for _, c := range primeCapacities {
		if c >= need {
			return c
		}
	}

	c := primeCapacities[len(primeCapacities)-1]
	for c < need {
		c = c*2 + 1
	}

	return c
}
