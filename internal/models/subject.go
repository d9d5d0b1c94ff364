package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Class labels are always "Class 1".."Class 12". Subject options are derived
// from the class number alone: 1-10 share the general set, 11-12 the stream
// set. Anything else yields no options.

const (
	MinClassNumber = 1
	MaxClassNumber = 12
)

// GeneralSubjects is offered to Class 1 through Class 10.
var GeneralSubjects = []string{
	"English",
	"Hindi",
	"Mathematics",
	"Science",
	"Social Science",
	"Computer Science",
}

// StreamSubjects is offered to Class 11 and Class 12.
var StreamSubjects = []string{
	"Physics",
	"Chemistry",
	"Biology",
	"Mathematics",
	"English",
	"Computer Science",
	"Economics",
	"Accountancy",
	"Business Studies",
	"History",
	"Geography",
	"Political Science",
	"Psychology",
	"Sociology",
	"Physical Education",
}

// ClassLabels enumerates every valid class label in order.
func ClassLabels() []string {
	labels := make([]string, 0, MaxClassNumber)
	for n := MinClassNumber; n <= MaxClassNumber; n++ {
		labels = append(labels, fmt.Sprintf("Class %d", n))
	}
	return labels
}

// ParseClassLabel extracts the class number from a "Class N" label.
// It returns false for malformed labels or numbers outside 1-12.
func ParseClassLabel(label string) (int, bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(label), "Class ")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < MinClassNumber || n > MaxClassNumber {
		return 0, false
	}
	return n, true
}

// SubjectsForClass returns the subject options for a class label. Unparsable
// labels yield an empty slice rather than an error; the caller decides how
// to surface that.
func SubjectsForClass(label string) []string {
	n, ok := ParseClassLabel(label)
	if !ok {
		return nil
	}
	if n >= 11 {
		return append([]string(nil), StreamSubjects...)
	}
	return append([]string(nil), GeneralSubjects...)
}

// ValidSubjectForClass reports whether subject belongs to the class's set.
func ValidSubjectForClass(label, subject string) bool {
	for _, s := range SubjectsForClass(label) {
		if s == subject {
			return true
		}
	}
	return false
}
