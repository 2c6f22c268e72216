package models

// Measure is the training signal a curriculum compares against its thresholds.
type Measure string

const (
	// MeasureReward advances lessons on the smoothed mean episode reward.
	MeasureReward Measure = "reward"
	// MeasureProgress advances lessons on the fraction of max steps completed.
	MeasureProgress Measure = "progress"
)

// Valid returns true if the measure is a known value.
func (m Measure) Valid() bool {
	switch m {
	case MeasureReward, MeasureProgress:
		return true
	default:
		return false
	}
}
