package scoring

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"equal", "rato", "rato", 1.0},
		{"both empty", "", "", 1.0},
		{"left empty", "", "rato", 0.0},
		{"right empty", "rato", "", 0.0},
		{"one substitution", "casa", "caza", 0.75},
		{"completely different", "sol", "lua", 0.0},
		{"long prefix", "cachorro", "cachor", 0.95},
		{"long prefix reversed", "cachor", "cachorro", 0.95},
		{"short prefix uses edit distance", "gato", "gat", 0.75},
		{"prefix needs both longer than four", "carro", "carr", 0.8},
		{"insertion", "lua", "luas", 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); !almostEqual(got, tt.want) {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarity_SelfIsOne(t *testing.T) {
	for _, w := range []string{"a", "rato", "chocolate", "guarda-chuva"} {
		if got := Similarity(w, w); got != 1.0 {
			t.Errorf("Similarity(%q, %q) = %v, want 1", w, w, got)
		}
	}
}

func TestSimilarity_EditDistanceBranchSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"casa", "caza"},
		{"rato", "pato"},
		{"lua", "falei"},
		{"chave", "xave"},
		{"palhaco", "paiaco"},
		{"sol", "solar"},
	}
	for _, p := range pairs {
		ab, ba := Similarity(p[0], p[1]), Similarity(p[1], p[0])
		if !almostEqual(ab, ba) {
			t.Errorf("Similarity not symmetric for %q/%q: %v vs %v", p[0], p[1], ab, ba)
		}
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	words := []string{"", "a", "rato", "cachorro", "xyz", "borboleta"}
	for _, a := range words {
		for _, b := range words {
			s := Similarity(a, b)
			if s < 0 || s > 1 {
				t.Errorf("Similarity(%q, %q) = %v outside [0,1]", a, b, s)
			}
		}
	}
}
