// Package rank derives the sort key stored with every score record.
//
// The backing stores only offer an ascending range scan within a quiz
// partition, so the key is inverted: the highest score maps to the lowest
// key, and scanning keys in ascending order returns scores from best to
// worst.
package rank

import "math"

// Ceiling anchors the inversion. Scores above it encode to negative
// keys, which still order correctly under an ascending scan.
const Ceiling int64 = 999999

// Encode maps a raw score to its rank key. For 0 <= s1 < s2 <= Ceiling,
// Encode(s1) > Encode(s2). Negative scores are treated as zero and the
// fractional part is discarded, matching submission semantics.
func Encode(score float64) int64 {
	return Ceiling - int64(math.Floor(math.Max(0, score)))
}

// Valid reports whether a submitted score can be interpreted as a
// non-negative finite number.
func Valid(score float64) bool {
	return !math.IsNaN(score) && !math.IsInf(score, 0) && score >= 0
}
