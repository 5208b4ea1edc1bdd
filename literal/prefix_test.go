package literal

import (
	"fmt"
	"testing"
)

func TestPrefixFree(t *testing.T) {
	tests := []struct {
		name  string
		words []string
		want  bool
	}{
		{"empty", nil, true},
		{"single", []string{"a"}, true},
		{"single empty string", []string{""}, true},
		{"disjoint", []string{"ab", "cd"}, true},
		{"prefix", []string{"a", "ab"}, false},
		{"prefix reversed order", []string{"ab", "a"}, false},
		{"duplicate", []string{"x", "x"}, false},
		{"empty string with others", []string{"", "a"}, false},
		{"same length", []string{"ab", "ac", "bc"}, true},
		{"suffix only", []string{"b", "ab"}, true},
		{"multibyte", []string{"é", "éa"}, false},
		{"multibyte distinct", []string{"é", "è"}, true},

		// Larger sets go through the automaton.
		{"large code", []string{"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9", "b"}, true},
		{"large with prefix", []string{"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9", "a90"}, false},
		{"large inner match only", []string{"xa", "xb", "xc", "xd", "xe", "xf", "xg", "xh", "xi", "yxa"}, true},
		{"large chain", []string{"b0", "b1", "b2", "b3", "b4", "b5", "b6", "b7", "c", "cc", "ccc"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PrefixFree(seqOf(tt.words...))
			if err != nil {
				t.Fatalf("PrefixFree error: %v", err)
			}
			if got != tt.want {
				t.Errorf("PrefixFree(%q) = %v, want %v", tt.words, got, tt.want)
			}
		})
	}
}

// TestPrefixFreeAgreesWithPairwise compares the automaton path against a
// direct pairwise check on generated sets.
func TestPrefixFreeAgreesWithPairwise(t *testing.T) {
	for n := 9; n <= 40; n += 7 {
		var ws []string
		for i := 0; i < n; i++ {
			ws = append(ws, fmt.Sprintf("k%02d", i))
		}
		for _, extra := range []string{"k1", "k0", "z", "k399"} {
			words := append(append([]string(nil), ws...), extra)
			want := pairwisePrefixFree(words)
			got, err := PrefixFree(seqOf(words...))
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Errorf("n=%d extra=%q: PrefixFree = %v, pairwise = %v", n, extra, got, want)
			}
		}
	}
}

func pairwisePrefixFree(words []string) bool {
	for i := range words {
		for j := range words {
			if i != j && isPrefix([]byte(words[i]), []byte(words[j])) {
				return false
			}
		}
	}
	return true
}

func BenchmarkPrefixFree(b *testing.B) {
	var ws []string
	for i := 0; i < 64; i++ {
		ws = append(ws, fmt.Sprintf("word%02d", i))
	}
	seq := seqOf(ws...)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = PrefixFree(seq)
	}
}
