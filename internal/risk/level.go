package risk

import "math"

type Level string

const (
	Low    Level = "low"
	Medium Level = "medium"
	High   Level = "high"
)

func ParseLevel(s string) (Level, bool) {
	switch l := Level(s); l {
	case Low, Medium, High:
		return l, true
	}
	return "", false
}

// Classify rates a proposed change from its relative size and the
// regression confidence behind it.
func Classify(changeFraction, confidence float64) Level {
	change := math.Abs(changeFraction)
	switch {
	case change > 0.20 || confidence < 0.6:
		return High
	case change > 0.10 || confidence < 0.75:
		return Medium
	default:
		return Low
	}
}
