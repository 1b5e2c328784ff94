package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_isAllNumeric(t *testing.T) {
	tests := []struct {
		pwd  string
		want bool
	}{
		{"", false},
		{"12345678", true},
		{"1234567a", false},
		{"G00d#Pa55word", false},
	}
	for _, tt := range tests {
		t.Run(tt.pwd, func(t *testing.T) {
			assert.Equal(t, tt.want, isAllNumeric(tt.pwd))
		})
	}
}

func Test_isComplexEnough(t *testing.T) {
	tests := []struct {
		pwd  string
		want bool
	}{
		{"alllowercase", false},
		{"ALLUPPERCASE", false},
		{"12345678", false},
		{"NoDigits#Here", false},
		{"NoSpecial123", false},
		{"G00d#Pa55word", true},
	}
	for _, tt := range tests {
		t.Run(tt.pwd, func(t *testing.T) {
			assert.Equal(t, tt.want, isComplexEnough(tt.pwd))
		})
	}
}

func Test_isTooSimilar(t *testing.T) {
	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  bool
	}{
		{name: "no attributes", pwd: "G00d#Pa55word", want: false},
		{name: "empty attributes skipped", pwd: "G00d#Pa55word", attrs: []string{"", " "}, want: false},
		{name: "equals username", pwd: "mwalimu", attrs: []string{"mwalimu"}, want: true},
		{name: "case-insensitive", pwd: "MWALIMU", attrs: []string{"mwalimu"}, want: true},
		{name: "near-identical to email", pwd: "awe@test.cd1", attrs: []string{"awe@test.cd"}, want: true},
		{name: "unrelated", pwd: "G00d#Pa55word", attrs: []string{"mwalimu", "awe@test.cd"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTooSimilar(tt.pwd, tt.attrs...))
		})
	}
}
