package fraud

import "time"

// Signal rule parameters. Weights sum above 100 on purpose; the banding
// policy clamps the score.
const (
	velocityWindow    = 20 * time.Minute
	velocityThreshold = 3
	velocityWeight    = 25

	averageWindow        = 30 * 24 * time.Hour
	amountRatioThreshold = 3.0
	amountRatioWeight    = 20

	newDeviceWeight = 15

	geoChangeWeight = 20

	youngAccountMaxAgeDays = 30
	youngAccountMinAmount  = 1000
	youngAccountWeight     = 25

	pspAnomalyWeight = 10
)

// farApart stands in for the elapsed time between two events when at least
// one timestamp is unusable, so time-bounded rules never fire spuriously on
// bad data.
const farApart = time.Duration(1<<62 - 1)

// Adjudication reads the user's history bounded to this many transactions.
const historyLimit = 100
