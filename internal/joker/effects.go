package joker

import (
	"sort"
	"strings"
	"unicode"

	"vocab-quiz-service/internal/diff"
)

// EffectName identifies what a rendering layer must do with an effect.
type EffectName string

const (
	// EffectWrongLetters marks letters as wrong without disclosing the right ones.
	EffectWrongLetters EffectName = "wrong-letters"
	// EffectWrongWords marks whole words as wrong.
	EffectWrongWords EffectName = "wrong-words"
	// EffectRevealedLetters marks letters the player was given.
	EffectRevealedLetters EffectName = "revealed-letters"
	// EffectShake is a content-free negative feedback pulse.
	EffectShake EffectName = "shake"
)

// Rand is the random source jokers draw from.
type Rand interface {
	Intn(n int) int
}

// Effect is an index-scoped annotation produced by a joker.
type Effect struct {
	Name    EffectName `json:"name"`
	Indexes []int      `json:"indexes"`
}

// accumulates reports whether repeated effects of this name union their indexes.
func (n EffectName) accumulates() bool {
	return n == EffectRevealedLetters
}

// transient effects last for a single state.
func (n EffectName) transient() bool {
	return n == EffectShake
}

// Effects is the set of effects applied to the current question, keyed by name.
// Methods never modify the receiver.
type Effects map[EffectName][]int

// Apply records e. Revealed letters are unioned with earlier ones; every other
// effect replaces the previous value of the same name.
func (fx Effects) Apply(e Effect) Effects {
	out := fx.clone()
	idx := append([]int(nil), e.Indexes...)
	if e.Name.accumulates() {
		idx = append(idx, fx[e.Name]...)
	}
	out[e.Name] = normalize(idx)
	return out
}

// Get returns the indexes recorded for name.
func (fx Effects) Get(name EffectName) []int {
	return fx[name]
}

// Has reports whether an effect of name is present.
func (fx Effects) Has(name EffectName) bool {
	_, ok := fx[name]
	return ok
}

// ClearTransient drops effects that only live for one state.
func (fx Effects) ClearTransient() Effects {
	dirty := false
	for name := range fx {
		if name.transient() {
			dirty = true
			break
		}
	}
	if !dirty {
		return fx
	}
	out := make(Effects, len(fx))
	for name, idx := range fx {
		if !name.transient() {
			out[name] = idx
		}
	}
	return out
}

func (fx Effects) clone() Effects {
	out := make(Effects, len(fx)+1)
	for name, idx := range fx {
		out[name] = idx
	}
	return out
}

func normalize(idx []int) []int {
	if len(idx) == 0 {
		return []int{}
	}
	sort.Ints(idx)
	out := idx[:1]
	for _, i := range idx[1:] {
		if i != out[len(out)-1] {
			out = append(out, i)
		}
	}
	return out
}

// fold lowercases rune by rune so positions stay aligned with the input.
func fold(s string) string {
	return strings.Map(unicode.ToLower, s)
}

// wrongLetterSlots compares case-insensitively, like the judge.
func wrongLetterSlots(target, answer string) []int {
	return diff.FilterLetterSlots(target, diff.WrongLetterIndexes(fold(target), fold(answer)))
}

// WrongLetters marks the letter slots of target that answer gets wrong.
func WrongLetters(target, answer string) Effect {
	return Effect{Name: EffectWrongLetters, Indexes: wrongLetterSlots(target, answer)}
}

// WrongWords marks every letter of each word answer gets wrong.
func WrongWords(target, answer string) Effect {
	var idx []int
	for _, span := range diff.WrongWordSpans(fold(target), fold(answer)) {
		idx = append(idx, span.Indexes()...)
	}
	return Effect{Name: EffectWrongWords, Indexes: idx}
}

// Shake is the negative feedback pulse.
func Shake() Effect {
	return Effect{Name: EffectShake}
}

// FillLetter picks one wrong letter slot at random and writes the target rune
// into answer at that position, padding with spaces when answer is too short.
// It reports false when no letter is wrong.
func FillLetter(target, answer string, rnd Rand) (string, int, bool) {
	wrong := wrongLetterSlots(target, answer)
	if len(wrong) == 0 {
		return answer, -1, false
	}
	pos := wrong[rnd.Intn(len(wrong))]

	t := []rune(target)
	a := []rune(answer)
	for len(a) <= pos {
		a = append(a, ' ')
	}
	a[pos] = t[pos]
	return string(a), pos, true
}
