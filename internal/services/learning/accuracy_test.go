package learning

import "testing"

func TestAccuracy(t *testing.T) {
	cases := []struct {
		predicted, actual, want float64
	}{
		{100, 100, 100},
		{150, 100, 50},
		{50, 100, 50},
		{0, 0, 100},
		{0.5, 0, 50},
		{300, 100, 0},
		{1000, 10, 0},
	}
	for _, c := range cases {
		if got := Accuracy(c.predicted, c.actual); got != c.want {
			t.Fatalf("Accuracy(%v, %v) = %v, want %v", c.predicted, c.actual, got, c.want)
		}
	}
}
