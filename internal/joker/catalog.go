// Package joker holds the joker catalog, the per-session joker inventory and
// the effect model jokers produce for rendering.
package joker

import (
	"fmt"
	"strings"
)

// Kind identifies a joker.
type Kind string

const (
	RevealWrongLetters Kind = "reveal-wrong-letters"
	RevealWrongWords   Kind = "reveal-wrong-words"
	CheckAnswer        Kind = "check-answer"
	ExtraTime          Kind = "extra-time"
	RevealLetter       Kind = "reveal-letter"
)

// Kinds lists every joker in display order.
func Kinds() []Kind {
	return []Kind{RevealWrongLetters, RevealWrongWords, CheckAnswer, ExtraTime, RevealLetter}
}

// ParseKind maps a client-supplied name to a Kind.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown joker %q", raw)
}

// Variant is the visual tag a client uses to style a joker.
func (k Kind) Variant() string {
	switch k {
	case RevealWrongLetters:
		return "danger"
	case RevealWrongWords:
		return "warning"
	case CheckAnswer:
		return "success"
	case ExtraTime:
		return "info"
	case RevealLetter:
		return "primary"
	default:
		return "secondary"
	}
}

// Joker is one entry of a player's inventory.
type Joker struct {
	Kind    Kind   `json:"kind"`
	ID      string `json:"id"`
	Order   int    `json:"order"`
	Count   int    `json:"count"`
	Variant string `json:"variant"`
}

// Inventory is an ordered set of jokers. Methods never modify the receiver.
type Inventory []Joker

// Catalog returns a fresh inventory with start charges of every joker.
func Catalog(start int) Inventory {
	if start < 0 {
		start = 0
	}
	kinds := Kinds()
	inv := make(Inventory, 0, len(kinds))
	for i, k := range kinds {
		inv = append(inv, Joker{
			Kind:    k,
			ID:      string(k),
			Order:   i + 1,
			Count:   start,
			Variant: k.Variant(),
		})
	}
	return inv
}

// Count returns the remaining charges of k.
func (inv Inventory) Count(k Kind) int {
	for _, j := range inv {
		if j.Kind == k {
			return j.Count
		}
	}
	return 0
}

// Consume takes one charge of k. It reports false, and returns inv unchanged,
// when no charge is left.
func (inv Inventory) Consume(k Kind) (Inventory, bool) {
	for i, j := range inv {
		if j.Kind != k {
			continue
		}
		if j.Count < 1 {
			return inv, false
		}
		out := inv.clone()
		out[i].Count--
		return out, true
	}
	return inv, false
}

// Grant adds one charge per entry of kinds.
func (inv Inventory) Grant(kinds ...Kind) Inventory {
	if len(kinds) == 0 {
		return inv
	}
	out := inv.clone()
	for _, k := range kinds {
		for i := range out {
			if out[i].Kind == k {
				out[i].Count++
				break
			}
		}
	}
	return out
}

func (inv Inventory) clone() Inventory {
	out := make(Inventory, len(inv))
	copy(out, inv)
	return out
}
