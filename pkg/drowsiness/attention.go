package drowsiness

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Category is the qualitative attention level.
type Category string

const (
	AttentionHigh   Category = "high"
	AttentionMedium Category = "medium"
	AttentionLow    Category = "low"
)

// Attention is a heuristic attention estimate for the current frame.
type Attention struct {
	Level    float64  `json:"level"` // 0-1
	Category Category `json:"category"`
	Reason   string   `json:"reason"`
}

// Counters are the process-lifetime event totals.
type Counters struct {
	Blinks      int `json:"blinks"`
	Microsleeps int `json:"microsleeps"`
	Yawns       int `json:"yawns"`
	HeadNods    int `json:"head_nods"`
}

// EstimateAttention derives attention from cumulative counters and the
// inter-blink history. It keeps no state of its own.
//
// Any microsleep pins the estimate to low. Otherwise, with enough
// inter-blink samples, a long mean interval (a fixed stare) gives medium
// and a normal one high; with too few samples the estimate is medium.
func EstimateAttention(c Counters, interBlinks []float64, cfg Config) Attention {
	if c.Microsleeps > 0 {
		return Attention{
			Level:    0.2,
			Category: AttentionLow,
			Reason:   "microsleep detected",
		}
	}

	if len(interBlinks) >= cfg.InterBlinkMinSamples && len(interBlinks) > 0 {
		mean := stat.Mean(interBlinks, nil)
		if mean > cfg.InattentionInterBlink {
			return Attention{
				Level:    0.5,
				Category: AttentionMedium,
				Reason:   fmt.Sprintf("long mean inter-blink interval (%.1fs), possible inattention", mean),
			}
		}
		return Attention{
			Level:    0.9,
			Category: AttentionHigh,
			Reason:   "blink pattern in expected range",
		}
	}

	return Attention{
		Level:    0.8,
		Category: AttentionMedium,
		Reason:   "insufficient blink samples, assuming medium attention",
	}
}
