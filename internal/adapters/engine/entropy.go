package engine

import (
	"math"

	"github.com/iamNilotpal/offload/internal/core/domain"
)

// EstimateBits prices a call's histogram the way the entropy stage would:
// the Shannon-optimal bit cost of coding every tabulated symbol with its
// observed frequency. The four alphabets are priced independently and
// summed. Table headers and framing are not included, so the estimate is
// a floor, useful for comparing calls and levels rather than predicting
// exact frame sizes.
func EstimateBits(h *domain.Histogram) float64 {
	return tableBits(h.Literals[:]) +
		tableBits(h.LiteralLengths[:]) +
		tableBits(h.MatchLengths[:]) +
		tableBits(h.Offsets[:])
}

// EstimateBytes is EstimateBits rounded up to whole bytes.
func EstimateBytes(h *domain.Histogram) uint64 {
	return uint64(math.Ceil(EstimateBits(h) / 8))
}

func tableBits(counts []uint32) float64 {
	var total uint64
	for _, c := range counts {
		total += uint64(c)
	}
	if total == 0 {
		return 0
	}

	var bits float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		bits -= float64(c) * math.Log2(p)
	}
	return bits
}
