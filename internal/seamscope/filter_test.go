package seamscope

import "testing"

func TestPointFilterMatches(t *testing.T) {
	tests := []struct {
		name   string
		filter PointFilter
		y      float32
		want   bool
	}{
		{"none matches anything", FilterNone, 0.1, true},
		{"int matches integer", FilterIntY, 16384, true},
		{"int matches negative integer", FilterIntY, -3, true},
		{"int rejects quarter", FilterIntY, 2.25, false},
		{"quarter matches integer", FilterQuarterIntY, 7, true},
		{"quarter matches quarter", FilterQuarterIntY, 0.75, true},
		// negative quarter steps match too, by choice
		{"quarter matches negative quarter", FilterQuarterIntY, -1.25, true},
		{"quarter rejects eighth", FilterQuarterIntY, 0.125, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.y); got != tt.want {
				t.Errorf("%v.Matches(%g) = %v, want %v", tt.filter, tt.y, got, tt.want)
			}
		})
	}
}

func TestPointFilterMatchesRange(t *testing.T) {
	tests := []struct {
		name       string
		filter     PointFilter
		minY, maxY float32
		want       bool
	}{
		{"none always", FilterNone, 3.1, 3.2, true},
		{"int straddles integer", FilterIntY, 3.2, 4.1, true},
		{"int misses integer", FilterIntY, 3.2, 3.9, false},
		{"int single integer", FilterIntY, 5, 5, true},
		{"quarter straddles quarter", FilterQuarterIntY, 3.2, 3.3, true},
		{"quarter misses quarter", FilterQuarterIntY, 3.26, 3.49, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.MatchesRange(tt.minY, tt.maxY); got != tt.want {
				t.Errorf("%v.MatchesRange(%g, %g) = %v, want %v", tt.filter, tt.minY, tt.maxY, got, tt.want)
			}
		})
	}
}

func TestPointFilterStrings(t *testing.T) {
	if len(AllPointFilters()) != 3 {
		t.Fatal("filter list changed")
	}
	want := map[PointFilter]string{FilterNone: "all y", FilterIntY: "int y", FilterQuarterIntY: "qint y"}
	for f, s := range want {
		if f.String() != s {
			t.Errorf("%d.String() = %q, want %q", f, f.String(), s)
		}
	}
}
