package game

import (
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/joker"
)

// jokerAction runs a joker whose charge has already been taken.
type jokerAction func(e *Engine, s State, q domain.Question) State

var jokerActions = map[joker.Kind]jokerAction{
	joker.RevealWrongLetters: revealWrongLetters,
	joker.RevealWrongWords:   revealWrongWords,
	joker.CheckAnswer:        checkAnswer,
	joker.ExtraTime:          extraTime,
	joker.RevealLetter:       revealLetter,
}

// activateJoker is refused, leaving s untouched, once the question has been
// judged or when no charge is left.
func (e *Engine) activateJoker(s State, kind joker.Kind) State {
	action, ok := jokerActions[kind]
	if !ok || !s.Judgeable() {
		return s
	}
	q, ok := s.Current()
	if !ok {
		return s
	}
	inv, ok := s.Jokers.Consume(kind)
	if !ok {
		return s
	}
	s.Jokers = inv
	return action(e, s, q)
}

func revealWrongLetters(e *Engine, s State, q domain.Question) State {
	fx := joker.WrongLetters(q.Target, s.Answer)
	if len(fx.Indexes) == 0 {
		return e.settle(s, q)
	}
	s.Effects = s.Effects.Apply(fx)
	return s
}

func revealWrongWords(e *Engine, s State, q domain.Question) State {
	fx := joker.WrongWords(q.Target, s.Answer)
	if len(fx.Indexes) == 0 {
		return e.settle(s, q)
	}
	s.Effects = s.Effects.Apply(fx)
	return s
}

func checkAnswer(e *Engine, s State, q domain.Question) State {
	if normalize(s.Answer) == normalize(q.Target) {
		return e.forceSuccess(s)
	}
	s.Effects = s.Effects.Apply(joker.Shake())
	return s
}

func extraTime(e *Engine, s State, _ domain.Question) State {
	s.TimeRemaining += e.rules.ExtraSeconds
	return s
}

func revealLetter(e *Engine, s State, q domain.Question) State {
	answer, pos, ok := joker.FillLetter(q.Target, s.Answer, e.rnd)
	if !ok {
		return e.settle(s, q)
	}
	s.Answer = answer
	s.Effects = s.Effects.Apply(joker.Effect{Name: joker.EffectRevealedLetters, Indexes: []int{pos}})
	return s
}

// settle is used by the reveal jokers when no letter is left to reveal. The
// answer can still differ from the target outside letter slots, so it goes
// through the same comparison as Submit.
func (e *Engine) settle(s State, q domain.Question) State {
	if normalize(s.Answer) == normalize(q.Target) {
		return e.forceSuccess(s)
	}
	return e.judge(s, DefaultFailMessage)
}
