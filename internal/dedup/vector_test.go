package dedup

import (
	"math"
	"testing"
)

func TestVectorizeEmptyInputs(t *testing.T) {
	t.Parallel()

	cases := []string{"", "   ", "!!! ???", "--- ***", "\t\n"}
	for _, title := range cases {
		if got := Vectorize(title); len(got) != 0 {
			t.Fatalf("Vectorize(%q) = %v, want empty vector", title, got)
		}
	}
}

func TestVectorizeIsDeterministicAndNormalized(t *testing.T) {
	t.Parallel()

	first := Vectorize("Zara launches NEW collection, new season")
	second := Vectorize("Zara launches NEW collection, new season")

	if len(first) != len(second) {
		t.Fatalf("vector lengths differ: %d vs %d", len(first), len(second))
	}
	for token, value := range first {
		if second[token] != value {
			t.Fatalf("token %q differs: %v vs %v", token, value, second[token])
		}
	}

	if first["new"] <= first["zara"] {
		t.Fatalf("repeated token should carry more weight: new=%v zara=%v", first["new"], first["zara"])
	}

	var sumSquares float64
	for _, value := range first {
		sumSquares += value * value
	}
	if math.Abs(sumSquares-1) > 1e-9 {
		t.Fatalf("vector is not L2-normalized: |v|^2 = %v", sumSquares)
	}
}

func TestVectorizeUnicodeTokens(t *testing.T) {
	t.Parallel()

	vector := Vectorize("Módna šou v Bratislave 2024")
	for _, token := range []string{"módna", "šou", "v", "bratislave", "2024"} {
		if _, ok := vector[token]; !ok {
			t.Fatalf("expected token %q in vector %v", token, vector)
		}
	}
}
