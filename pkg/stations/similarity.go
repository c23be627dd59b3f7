package stations

import "strings"

// Ratio scores whole-string similarity between two strings on a 0-100 scale
// using normalized edit distance over runes. Case-insensitive. Suited to
// matching complete words such as city names.
func Ratio(a, b string) int {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	if len(ra) == 0 && len(rb) == 0 {
		return 100
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	dist := levenshtein(ra, rb)
	return int(float64(longest-dist) / float64(longest) * 100)
}

// PartialRatio scores substring-tolerant similarity on a 0-100 scale: the
// best Ratio between the shorter string and any equal-length window of the
// longer one. "凤凰山" against "凤凰山监测站" scores 100. Suited to matching
// a keyword inside a longer station name.
func PartialRatio(a, b string) int {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	if len(ra) == 0 && len(rb) == 0 {
		return 100
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	shorter, longer := ra, rb
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	best := 0
	window := len(shorter)
	for start := 0; start+window <= len(longer); start++ {
		dist := levenshtein(shorter, longer[start:start+window])
		score := int(float64(window-dist) / float64(window) * 100)
		if score > best {
			best = score
		}
		if best == 100 {
			break
		}
	}
	return best
}

// levenshtein calculates the edit distance between two rune slices using a
// two-row DP table.
func levenshtein(s1, s2 []rune) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			curr[j] = minInt(
				curr[j-1]+1,    // insertion
				prev[j]+1,      // deletion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}

// minInt returns the minimum of three integers.
func minInt(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}
