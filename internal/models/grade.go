package models

// gradePoints is the fixed letter scale used for GPA computation.
var gradePoints = map[string]float64{
	"A":  4.0,
	"A-": 3.7,
	"B+": 3.3,
	"B":  3.0,
	"B-": 2.7,
	"C+": 2.3,
	"C":  2.0,
	"C-": 1.7,
	"D":  1.0,
	"F":  0.0,
}

// GradePoints resolves a letter grade to its point value. Grades outside the
// scale resolve to (0, false) and are excluded from GPA computation.
func GradePoints(grade string) (float64, bool) {
	points, ok := gradePoints[grade]
	return points, ok
}

// ValidGrade reports whether the letter grade belongs to the fixed scale.
func ValidGrade(grade string) bool {
	_, ok := gradePoints[grade]
	return ok
}

// LetterGrades returns the recognised letter grades.
func LetterGrades() []string {
	grades := make([]string, 0, len(gradePoints))
	for g := range gradePoints {
		grades = append(grades, g)
	}
	return grades
}
