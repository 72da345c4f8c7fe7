package report

// MaxGrade is the grade of a clean report.
const MaxGrade = 10

// Grade computes max(0, 10 - sum((3-p) * count[p])), clamped to [0, MaxGrade].
func Grade(counts [NumPriorities]int) int {
	penalty := 0
	for p, n := range counts {
		penalty += (NumPriorities - 1 - p) * n
	}
	grade := MaxGrade - penalty
	switch {
	case grade < 0:
		return 0
	case grade > MaxGrade:
		return MaxGrade
	}
	return grade
}
