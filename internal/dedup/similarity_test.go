package dedup

import (
	"math"
	"testing"
)

func TestCosineSelfSimilarity(t *testing.T) {
	t.Parallel()

	titles := []string{
		"Zara launches new collection",
		"Paris fashion week highlights",
		"a",
	}
	for _, title := range titles {
		v := Vectorize(title)
		if got := Cosine(v, v); math.Abs(got-1) > 1e-9 {
			t.Fatalf("Cosine(v, v) = %v for %q, want 1", got, title)
		}
	}
}

func TestCosineSymmetry(t *testing.T) {
	t.Parallel()

	a := Vectorize("Zara launches new collection")
	b := Vectorize("New Zara collection arrives in stores")
	if Cosine(a, b) != Cosine(b, a) {
		t.Fatalf("cosine is not symmetric: %v vs %v", Cosine(a, b), Cosine(b, a))
	}
}

func TestCosineEmptyVectors(t *testing.T) {
	t.Parallel()

	if got := Cosine(Vector{}, Vector{}); got != 0 {
		t.Fatalf("Cosine of two empty vectors = %v, want 0", got)
	}
	if got := Cosine(Vectorize("some title"), Vector{}); got != 0 {
		t.Fatalf("Cosine against empty vector = %v, want 0", got)
	}
}

func TestCosineDisjointVectors(t *testing.T) {
	t.Parallel()

	a := Vectorize("fashion week paris")
	b := Vectorize("quarterly earnings report")
	if got := Cosine(a, b); got != 0 {
		t.Fatalf("disjoint vectors scored %v, want 0", got)
	}
}

func TestTitleSimilarity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		a, b     string
		atLeast  float64
		lessThan float64
	}{
		{
			name:    "identical apart from case and punctuation",
			a:       "Zara launches new collection",
			b:       "zara launches new collection!",
			atLeast: 0.9,
		},
		{
			name:    "identical",
			a:       "Paris fashion week highlights",
			b:       "paris fashion week highlights",
			atLeast: 1.0,
		},
		{
			name:     "unrelated",
			a:        "Zara launches new collection",
			b:        "Quarterly steel output figures",
			lessThan: 0.5,
		},
		{
			name:     "both empty",
			a:        "",
			b:        "",
			lessThan: 0.001,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := TitleSimilarity(tc.a, tc.b)
			if got < 0 || got > 1 {
				t.Fatalf("similarity %v outside [0,1]", got)
			}
			if got != TitleSimilarity(tc.b, tc.a) {
				t.Fatalf("similarity not symmetric for %q / %q", tc.a, tc.b)
			}
			if tc.atLeast > 0 && got < tc.atLeast {
				t.Fatalf("similarity %v, want >= %v", got, tc.atLeast)
			}
			if tc.lessThan > 0 && got >= tc.lessThan {
				t.Fatalf("similarity %v, want < %v", got, tc.lessThan)
			}
		})
	}
}
