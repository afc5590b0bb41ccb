package bugfix

import (
	"math"
	"time"
)

// RecencyScore weights one fix by how recent it is within the analyzed span.
//
// The fix time is normalized to t in [0, 1], where 0 is the oldest commit seen
// and 1 the newest, and mapped through 1 / (1 + exp(12 - 12t)). Scores are only
// comparable between files of the same run.
func RecencyScore(newest, oldest, fix time.Time) float64 {
	span := newest.Sub(oldest).Seconds()
	if span <= 0 {
		return 1.0
	}

	t := 1 - newest.Sub(fix).Seconds()/span
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return 1 / (1 + math.Exp(12-12*t))
}
