package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassLabel(t *testing.T) {
	cases := []struct {
		label string
		num   int
		ok    bool
	}{
		{"Class 1", 1, true},
		{"Class 12", 12, true},
		{" Class 7 ", 7, true},
		{"Class 0", 0, false},
		{"Class 13", 0, false},
		{"class 5", 0, false},
		{"Grade 5", 0, false},
		{"Class", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		n, ok := ParseClassLabel(tc.label)
		assert.Equal(t, tc.ok, ok, tc.label)
		if tc.ok {
			assert.Equal(t, tc.num, n, tc.label)
		}
	}
}

func TestSubjectsForClassGeneralSet(t *testing.T) {
	subjects := SubjectsForClass("Class 5")
	require.Len(t, subjects, 6)
	assert.Equal(t, []string{"English", "Hindi", "Mathematics", "Science", "Social Science", "Computer Science"}, subjects)
}

func TestSubjectsForClassStreamSet(t *testing.T) {
	for _, label := range []string{"Class 11", "Class 12"} {
		subjects := SubjectsForClass(label)
		require.Len(t, subjects, 15, label)
		assert.Equal(t, StreamSubjects, subjects, label)
	}
}

func TestSubjectsForClassInvalid(t *testing.T) {
	assert.Empty(t, SubjectsForClass("Class 13"))
	assert.Empty(t, SubjectsForClass("nonsense"))
	assert.Empty(t, SubjectsForClass(""))
}

func TestSubjectsForClassReturnsCopy(t *testing.T) {
	subjects := SubjectsForClass("Class 3")
	subjects[0] = "mutated"
	assert.Equal(t, "English", GeneralSubjects[0])
}

func TestValidSubjectForClass(t *testing.T) {
	assert.True(t, ValidSubjectForClass("Class 8", "Hindi"))
	assert.False(t, ValidSubjectForClass("Class 8", "Physics"))
	assert.True(t, ValidSubjectForClass("Class 11", "Physics"))
	assert.False(t, ValidSubjectForClass("Class 11", "Hindi"))
	assert.False(t, ValidSubjectForClass("Class 13", "English"))
}

func TestClassLabels(t *testing.T) {
	labels := ClassLabels()
	require.Len(t, labels, 12)
	assert.Equal(t, "Class 1", labels[0])
	assert.Equal(t, "Class 12", labels[11])
}
