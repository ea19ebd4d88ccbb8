package service

import "civicreport/models"

// Points awarded per report in each status. Resolved reports are worth the
// most so that users whose reports get fixed climb the ranking.
const (
	pointsPending    = 1
	pointsInProgress = 5
	pointsResolved   = 10
)

// CalculatePoints derives a user's score from their report counts per status.
// Pure function, deterministic and idempotent.
func CalculatePoints(counts map[models.Status]int) int {
	return counts[models.StatusPending]*pointsPending +
		counts[models.StatusInProgress]*pointsInProgress +
		counts[models.StatusResolved]*pointsResolved
}
