package dedup

import "strings"

// Cosine computes cosine similarity over the key intersection of two sparse
// vectors, clamped to [0, 1]. The vectors are non-negative so raw values
// already land in range; the clamp guards floating-point drift. Two empty
// vectors score 0, not 1.
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var sum float64
	for token, value := range a {
		if other, ok := b[token]; ok {
			sum += value * other
		}
	}

	switch {
	case sum < 0:
		return 0
	case sum > 1:
		return 1
	default:
		return sum
	}
}

// TitleSimilarity scores two titles with a symmetric common-substring match,
// normalized to [0, 1]. Titles differing only by casing or punctuation score
// at or above 0.9; unrelated titles score near 0.
func TitleSimilarity(a, b string) float64 {
	left := []rune(strings.ToLower(a))
	right := []rune(strings.ToLower(b))
	total := len(left) + len(right)
	if total == 0 {
		return 0
	}

	common := commonChars(left, right)
	return float64(2*common) / float64(total)
}

// commonChars counts matched characters the way a percentage common-substring
// comparison does: find the longest common substring, then recurse into the
// unmatched prefixes and suffixes.
func commonChars(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var posA, posB, longest int
	for i := range a {
		for j := range b {
			k := 0
			for i+k < len(a) && j+k < len(b) && a[i+k] == b[j+k] {
				k++
			}
			if k > longest {
				longest = k
				posA = i
				posB = j
			}
		}
	}
	if longest == 0 {
		return 0
	}

	sum := longest
	sum += commonChars(a[:posA], b[:posB])
	sum += commonChars(a[posA+longest:], b[posB+longest:])
	return sum
}
