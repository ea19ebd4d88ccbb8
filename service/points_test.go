package service

import (
	"testing"

	"civicreport/models"
)

func TestCalculatePoints(t *testing.T) {
	testCases := []struct {
		name   string
		counts map[models.Status]int
		want   int
	}{
		{
			name:   "no reports",
			counts: map[models.Status]int{},
			want:   0,
		},
		{
			name:   "nil counts",
			counts: nil,
			want:   0,
		},
		{
			name: "mixed statuses",
			counts: map[models.Status]int{
				models.StatusPending:    2,
				models.StatusInProgress: 1,
				models.StatusResolved:   3,
			},
			want: 2*1 + 1*5 + 3*10,
		},
		{
			name: "only resolved",
			counts: map[models.Status]int{
				models.StatusResolved: 4,
			},
			want: 40,
		},
		{
			name: "only pending",
			counts: map[models.Status]int{
				models.StatusPending: 10,
			},
			want: 10,
		},
	}

	for _, tc := range testCases {
		if got := CalculatePoints(tc.counts); got != tc.want {
			t.Errorf("%s: CalculatePoints = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestCalculatePointsIsDeterministic(t *testing.T) {
	counts := map[models.Status]int{
		models.StatusPending:    5,
		models.StatusInProgress: 2,
		models.StatusResolved:   1,
	}
	first := CalculatePoints(counts)
	for i := 0; i < 10; i++ {
		if got := CalculatePoints(counts); got != first {
			t.Fatalf("run %d: CalculatePoints = %d, want %d", i, got, first)
		}
	}
}
