package charset

import (
	"testing"
	"unicode"
)

func TestFromRangesNormalizes(t *testing.T) {
	tests := []struct {
		name string
		in   []Range
		want []Range
	}{
		{name: "empty", in: nil, want: nil},
		{name: "single", in: []Range{{'a', 'c'}}, want: []Range{{'a', 'c'}}},
		{name: "unsorted", in: []Range{{'x', 'z'}, {'a', 'c'}}, want: []Range{{'a', 'c'}, {'x', 'z'}}},
		{name: "overlap", in: []Range{{'a', 'm'}, {'f', 'z'}}, want: []Range{{'a', 'z'}}},
		{name: "adjacent", in: []Range{{'a', 'c'}, {'d', 'f'}}, want: []Range{{'a', 'f'}}},
		{name: "contained", in: []Range{{'a', 'z'}, {'c', 'd'}}, want: []Range{{'a', 'z'}}},
		{name: "inverted dropped", in: []Range{{'z', 'a'}, {'0', '9'}}, want: []Range{{'0', '9'}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromRanges(tt.in...).Ranges()
			if len(got) != len(tt.want) {
				t.Fatalf("FromRanges(%v) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("FromRanges(%v)[%d] = %v, want %v", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSetOperations(t *testing.T) {
	az := FromRanges(Range{'a', 'z'})
	vowels := Of('a', 'e', 'i', 'o', 'u')
	digits := Digit()

	if !az.Intersects(vowels) {
		t.Error("[a-z] should intersect vowels")
	}
	if az.Intersects(digits) {
		t.Error("[a-z] should not intersect digits")
	}
	if got := az.Intersect(vowels); !got.Equal(vowels) {
		t.Errorf("[a-z] ∩ vowels = %v, want %v", got, vowels)
	}
	if got := az.Minus(vowels).Len(); got != 21 {
		t.Errorf("consonant count = %d, want 21", got)
	}
	if got := az.Union(digits).Len(); got != 36 {
		t.Errorf("[a-z0-9] size = %d, want 36", got)
	}
	if !Empty().Negate().IsAny() {
		t.Error("negated empty set should be Any")
	}
	if !Any().Negate().IsEmpty() {
		t.Error("negated Any should be empty")
	}
	if neg := az.Negate(); neg.Contains('m') || !neg.Contains('A') {
		t.Errorf("negation of [a-z] is wrong: %v", neg)
	}
	if got := az.Negate().Negate(); !got.Equal(az) {
		t.Errorf("double negation = %v, want %v", got, az)
	}
}

func TestSingleAndRunes(t *testing.T) {
	if r, ok := Of('x').Single(); !ok || r != 'x' {
		t.Errorf("Single() = %q, %v; want 'x', true", r, ok)
	}
	if _, ok := Of('x', 'y').Single(); ok {
		t.Error("two-member set reported as single")
	}
	if got := Of('c', 'a', 'b').Runes(10); string(got) != "abc" {
		t.Errorf("Runes() = %q, want \"abc\"", string(got))
	}
	if got := Word().Runes(10); got != nil {
		t.Errorf("Runes() over limit = %q, want nil", string(got))
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		name string
		in   Set
		want []rune
		not  []rune
	}{
		{name: "ascii letter", in: Of('a'), want: []rune{'a', 'A'}},
		{name: "kelvin", in: Of('k'), want: []rune{'k', 'K', 'K'}},
		{name: "range", in: FromRanges(Range{'a', 'c'}), want: []rune{'A', 'B', 'C'}, not: []rune{'D'}},
		{name: "digits unchanged", in: Digit(), want: []rune{'0'}, not: []rune{'a'}},
		{name: "sigma", in: Of('σ'), want: []rune{'Σ', 'ς'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Fold()
			for _, r := range tt.want {
				if !got.Contains(r) {
					t.Errorf("Fold(%v) missing %q", tt.in, r)
				}
			}
			for _, r := range tt.not {
				if got.Contains(r) {
					t.Errorf("Fold(%v) unexpectedly contains %q", tt.in, r)
				}
			}
		})
	}

	if got := Any().Fold(); !got.IsAny() {
		t.Error("Fold(Any) should stay Any")
	}
	if got := FoldRune('1'); got.Len() != 1 {
		t.Errorf("FoldRune('1') = %v, want single member", got)
	}
}

func TestProperty(t *testing.T) {
	tests := []struct {
		name   string
		member rune
		absent rune
	}{
		{name: "Alpha", member: 'é', absent: '1'},
		{name: "digit", member: '٣', absent: 'a'},
		{name: "Greek", member: 'λ', absent: 'a'},
		{name: "Lu", member: 'A', absent: 'a'},
		{name: "white_space", member: ' ', absent: 'x'},
		{name: "Word", member: '_', absent: ' '},
		{name: "XDigit", member: 'f', absent: 'g'},
		{name: "ASCII", member: '~', absent: 'é'},
		{name: "Punct", member: '$', absent: 'a'},
		{name: "Hiragana", member: 'あ', absent: 'ア'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := Property(tt.name)
			if !ok {
				t.Fatalf("Property(%q) not found", tt.name)
			}
			if !s.Contains(tt.member) {
				t.Errorf("Property(%q) should contain %q", tt.name, tt.member)
			}
			if s.Contains(tt.absent) {
				t.Errorf("Property(%q) should not contain %q", tt.name, tt.absent)
			}
		})
	}

	if _, ok := Property("NoSuchProperty"); ok {
		t.Error("unknown property reported as found")
	}
	if _, ok := Posix("greek"); ok {
		t.Error("Greek is not a POSIX bracket name")
	}
	if s, ok := Posix("alpha"); !ok || !s.Contains('z') {
		t.Error("Posix(alpha) should contain 'z'")
	}
}

func TestDot(t *testing.T) {
	if Dot(false).Contains('\n') {
		t.Error("dot without /m must not match newline")
	}
	if !Dot(true).Contains('\n') {
		t.Error("dot with /m must match newline")
	}
	if !Dot(false).Contains(unicode.MaxRune) {
		t.Error("dot must match the largest rune")
	}
}

func TestString(t *testing.T) {
	if got := FromRanges(Range{'a', 'c'}, Range{'x', 'x'}).String(); got != "[a-cx]" {
		t.Errorf("String() = %q, want %q", got, "[a-cx]")
	}
	if got := Any().String(); got != "[any]" {
		t.Errorf("String() = %q, want %q", got, "[any]")
	}
}
