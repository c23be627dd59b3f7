package stations

import "testing"

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{name: "identical", a: "广州", b: "广州", want: 100},
		{name: "identical ascii", a: "guangzhou", b: "guangzhou", want: 100},
		{name: "case insensitive", a: "Guangzhou", b: "guangzhou", want: 100},
		{name: "both empty", a: "", b: "", want: 100},
		{name: "one empty", a: "广州", b: "", want: 0},
		{name: "disjoint", a: "ab", b: "xy", want: 0},
		{name: "single edit", a: "abcd", b: "abce", want: 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ratio(tt.a, tt.b); got != tt.want {
				t.Errorf("Ratio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRatioSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"凤凰山", "凤凰山站"},
		{"shenzhen", "shenzen"},
		{"广州市", "广州"},
	}
	for _, p := range pairs {
		if Ratio(p[0], p[1]) != Ratio(p[1], p[0]) {
			t.Errorf("Ratio not symmetric for %q / %q", p[0], p[1])
		}
	}
}

func TestPartialRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{name: "exact substring", a: "凤凰山", b: "凤凰山国家森林公园", want: 100},
		{name: "substring either direction", a: "凤凰山国家森林公园", b: "凤凰山", want: 100},
		{name: "identical", a: "黄埔", b: "黄埔", want: 100},
		{name: "one empty", a: "", b: "凤凰山", want: 0},
		{name: "no overlap", a: "ab", b: "xyz", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PartialRatio(tt.a, tt.b); got != tt.want {
				t.Errorf("PartialRatio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPartialRatioAtLeastRatio(t *testing.T) {
	// A windowed best-match score can never fall below the whole-string score.
	pairs := [][2]string{
		{"凤凰山", "凤凰山森林公园监测站"},
		{"monitor", "air quality monitoring site"},
		{"tianhe", "tianhe district"},
	}
	for _, p := range pairs {
		if PartialRatio(p[0], p[1]) < Ratio(p[0], p[1]) {
			t.Errorf("PartialRatio(%q, %q) < Ratio(...)", p[0], p[1])
		}
	}
}

func TestLevenshteinRunes(t *testing.T) {
	// Multi-byte characters count as single edits.
	if d := levenshtein([]rune("凤凰山"), []rune("凤凰岭")); d != 1 {
		t.Errorf("levenshtein(凤凰山, 凤凰岭) = %d, want 1", d)
	}
	if d := levenshtein([]rune(""), []rune("abc")); d != 3 {
		t.Errorf("levenshtein empty vs abc = %d, want 3", d)
	}
}
