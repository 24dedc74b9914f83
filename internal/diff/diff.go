// Package diff compares a player's answer with the target text, either letter
// by letter or word by word. Comparisons are strictly positional: an inserted
// or missing rune shifts every later position to wrong.
package diff

import "unicode"

// Span is an inclusive range of rune positions in the target text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Indexes expands the span into its positions.
func (s Span) Indexes() []int {
	if s.End < s.Start {
		return nil
	}
	out := make([]int, 0, s.End-s.Start+1)
	for i := s.Start; i <= s.End; i++ {
		out = append(out, i)
	}
	return out
}

// WrongLetterIndexes returns every position of target where input holds a
// different rune or has run out. Input beyond the target length is ignored.
// Non-letter positions are reported like any other; callers that only care
// about editable slots filter with FilterLetterSlots.
func WrongLetterIndexes(target, input string) []int {
	t := []rune(target)
	in := []rune(input)

	var wrong []int
	for i := range t {
		if i >= len(in) || in[i] != t[i] {
			wrong = append(wrong, i)
		}
	}
	return wrong
}

// WrongWordSpans splits target into maximal runs of letters and reports each
// run whose rune range in input differs. A single wrong letter marks the
// whole word.
func WrongWordSpans(target, input string) []Span {
	t := []rune(target)
	in := []rune(input)

	var wrong []Span
	for _, span := range wordSpans(t) {
		if !sameRange(t, in, span) {
			wrong = append(wrong, span)
		}
	}
	return wrong
}

// IsLetterSlot reports whether position i of target is an editable letter.
func IsLetterSlot(target string, i int) bool {
	t := []rune(target)
	return i >= 0 && i < len(t) && unicode.IsLetter(t[i])
}

// LetterSlots returns the positions of target that hold letters.
func LetterSlots(target string) []int {
	var out []int
	for i, r := range []rune(target) {
		if unicode.IsLetter(r) {
			out = append(out, i)
		}
	}
	return out
}

// FilterLetterSlots keeps the indexes that point at letters in target.
func FilterLetterSlots(target string, indexes []int) []int {
	t := []rune(target)
	var out []int
	for _, i := range indexes {
		if i >= 0 && i < len(t) && unicode.IsLetter(t[i]) {
			out = append(out, i)
		}
	}
	return out
}

func wordSpans(t []rune) []Span {
	var spans []Span
	start := -1
	for i, r := range t {
		if unicode.IsLetter(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			spans = append(spans, Span{Start: start, End: i - 1})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, Span{Start: start, End: len(t) - 1})
	}
	return spans
}

func sameRange(t, in []rune, span Span) bool {
	if span.End >= len(in) {
		return false
	}
	for i := span.Start; i <= span.End; i++ {
		if t[i] != in[i] {
			return false
		}
	}
	return true
}
