package semver

import "testing"

func TestCheckCompatibility(t *testing.T) {
	cases := []struct {
		v, expected SemVer
		want        bool
	}{
		{New(1, 2, 3), New(1, 2, 0), true},
		{New(1, 1, 9), New(1, 2, 0), false},
		{New(0, 2, 0), New(0, 1, 9), false},
	}
	for _, c := range cases {
		if got := c.v.CheckCompatibility(c.expected); got != c.want {
			t.Errorf("%s.CheckCompatibility(%s) = %v, want %v", c.v, c.expected, got, c.want)
		}
	}
}
