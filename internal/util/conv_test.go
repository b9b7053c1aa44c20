package util

import "testing"

func TestNormalizeAnswer(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"A", "A"},
		{"a", "A"},
		{" b ", "B"},
		{"\tc\n", "C"},
		{"", ""},
		{"  ", ""},
		{"casa", "CASA"},
	}
	for _, tc := range cases {
		if got := NormalizeAnswer(tc.in); got != tc.want {
			t.Errorf("NormalizeAnswer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
