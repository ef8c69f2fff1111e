package tetris

import (
	"math"
	"time"
)

const (
	InitialInterval = 1000 * time.Millisecond
	SpeedStep       = 50 * time.Millisecond
	// MinInterval is the fastest gravity allowed. Without it the interval
	// reaches zero at level 21.
	MinInterval = 50 * time.Millisecond
)

// ScoreTable is the base award indexed by the number of rows cleared at once.
var ScoreTable = [5]int{0, 100, 300, 500, 800}

// points returns the award for clearing lines rows at level.
func points(lines, level int) int {
	if lines < 0 || lines >= len(ScoreTable) {
		return 0
	}
	return ScoreTable[lines] * level
}

// nextLevel truncates level + lines*0.1. Level is reassigned every clear so
// progress below a whole level is not carried to the next clear.
func nextLevel(level, lines int) int {
	return int(math.Floor(float64(level) + float64(lines)*0.1))
}

// interval returns the gravity interval for level.
func interval(level int) time.Duration {
	return max(InitialInterval-time.Duration(level-1)*SpeedStep, MinInterval)
}
