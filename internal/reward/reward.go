package reward

// #region constants

const (
	// successWindow bounds how much history influences the success bonus.
	// Older outcomes remain stored for audit but never reach the reward.
	successWindow = 10

	successWeight = 0.2
	noveltyWeight = 0.1
)

// #endregion

// #region input

// Input bundles everything a reward computation reads.
type Input struct {
	// Rating is the explicit 1-5 user rating, 0 when no rating is present.
	Rating int
	// Successes is the full per-intent outcome history; only the trailing
	// successWindow entries contribute.
	Successes []bool
	// Visits is the visit count for the (state, action) pair before the
	// update this reward feeds.
	Visits int
}

// #endregion

// #region compute

// Compute converts an observed outcome into a scalar reward in [-1, 1]:
//
//	base        = (rating-3)/2 when a rating is present, else 0
//	successBonus = (recentSuccessRate - 0.5) * 0.2
//	novelty     = 0.1 / (1 + visits)
//
// The neutral rating 3 centers at zero, 5 maps to +1, 1 to -1. The novelty
// term decreases monotonically with visits, rewarding under-visited pairs.
// The final clamp is non-optional; no output ever leaves [-1, 1].
func Compute(in Input) float64 {
	var r float64
	if in.Rating != 0 {
		r = float64(in.Rating-3) / 2
	}
	if len(in.Successes) > 0 {
		r += (recentSuccessRate(in.Successes) - 0.5) * successWeight
	}
	r += noveltyWeight / float64(1+in.Visits)
	return clamp(r)
}

// #endregion

// #region helpers

// recentSuccessRate is the mean of the last successWindow outcomes; fewer
// than successWindow uses all available.
func recentSuccessRate(successes []bool) float64 {
	window := successes
	if len(window) > successWindow {
		window = window[len(window)-successWindow:]
	}
	hits := 0
	for _, ok := range window {
		if ok {
			hits++
		}
	}
	return float64(hits) / float64(len(window))
}

func clamp(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion
