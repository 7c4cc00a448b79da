/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package matching

import (
	"fmt"
)

// Side names a column of the board.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// Phase is derived from the round's counters, never stored.
type Phase string

const (
	PhaseInProgress Phase = "in_progress"
	PhaseComplete   Phase = "complete"
	PhaseExpired    Phase = "expired"
)

// Outcome reports what a selection did.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeSelected
	OutcomeDeselected
	OutcomeCorrect
	OutcomeWrong
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeSelected:
		return "selected"
	case OutcomeDeselected:
		return "deselected"
	case OutcomeCorrect:
		return "correct"
	case OutcomeWrong:
		return "wrong"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

const (
	MessageCorrect = "✔️ Correct!"
	MessageWrong   = "✖️ Try again"
	MessageSaved   = "💾 Saved locally"
	MessageCopied  = "🔗 Link copied!"
)

const (
	baseReward   = 100
	streakReward = 10
	dangerSec    = 10
)

// message is the transient line under the board. Match feedback can be
// hidden by the player; notices from other actions are always shown.
type message struct {
	text     string
	feedback bool
}

// Round is one playthrough of a pool.
type Round struct {
	pool  []Card
	left  []Card
	right []Card

	matched  map[string]bool
	selLeft  *Card
	selRight *Card

	score    int
	mistakes int
	streak   int
	timeLeft int

	msg message
}

// NewRound lays out pool in two independently shuffled columns.
func NewRound(src Source, pool []Card, timerSec int) *Round {
	r := &Round{pool: pool}
	r.Reset(src, timerSec)

	return r
}

// Reset replays the same pool: both columns are shuffled again and every
// counter, selection and the countdown start over.
func (r *Round) Reset(src Source, timerSec int) {
	r.left = Shuffle(src, r.pool)
	r.right = Shuffle(src, r.pool)
	r.matched = make(map[string]bool)
	r.selLeft = nil
	r.selRight = nil
	r.score = 0
	r.mistakes = 0
	r.streak = 0
	r.timeLeft = timerSec
	r.msg = message{}
}

func (r *Round) Pool() []Card { return r.pool }

func (r *Round) Column(side Side) []Card {
	if side == Right {
		return r.right
	}
	return r.left
}

func (r *Round) Score() int    { return r.score }
func (r *Round) Mistakes() int { return r.mistakes }
func (r *Round) Streak() int   { return r.streak }
func (r *Round) TimeLeft() int { return r.timeLeft }

// MatchedCount is the number of pool cards whose pair has been matched.
func (r *Round) MatchedCount() int {
	n := 0
	for _, c := range r.pool {
		if r.matched[c.Key] {
			n++
		}
	}
	return n
}

func (r *Round) IsMatched(key string) bool { return r.matched[key] }

// Selected returns the card currently selected on side, if any.
func (r *Round) Selected(side Side) (Card, bool) {
	sel := r.selLeft
	if side == Right {
		sel = r.selRight
	}
	if sel == nil {
		return Card{}, false
	}
	return *sel, true
}

// Complete reports whether every card in a non-empty pool has been matched.
func (r *Round) Complete() bool {
	if len(r.pool) == 0 {
		return false
	}

	for _, c := range r.pool {
		if !r.matched[c.Key] {
			return false
		}
	}

	return true
}

func (r *Round) Phase(timerOn bool) Phase {
	switch {
	case r.Complete():
		return PhaseComplete
	case timerOn && r.timeLeft <= 0:
		return PhaseExpired
	default:
		return PhaseInProgress
	}
}

// Select toggles cardID on side and evaluates a match once both sides hold a
// selection. Matched cards, unknown ids and frozen boards are ignored.
func (r *Round) Select(side Side, cardID string, timerOn bool) Outcome {
	if side != Left && side != Right {
		return OutcomeIgnored
	}
	if r.Phase(timerOn) != PhaseInProgress {
		return OutcomeIgnored
	}

	card, ok := r.find(side, cardID)
	if !ok || r.matched[card.Key] {
		return OutcomeIgnored
	}

	sel := &r.selLeft
	if side == Right {
		sel = &r.selRight
	}

	if *sel != nil && (*sel).ID == card.ID {
		*sel = nil
		return OutcomeDeselected
	}
	*sel = &card

	if r.selLeft == nil || r.selRight == nil {
		return OutcomeSelected
	}

	return r.evaluate()
}

func (r *Round) evaluate() Outcome {
	left, right := *r.selLeft, *r.selRight
	r.selLeft = nil
	r.selRight = nil

	if left.Matches(right) {
		r.matched[left.Key] = true
		r.score += baseReward + r.streak*streakReward
		r.streak++
		r.msg = message{text: MessageCorrect, feedback: true}

		return OutcomeCorrect
	}

	r.mistakes++
	r.streak = 0
	r.msg = message{text: MessageWrong, feedback: true}

	return OutcomeWrong
}

func (r *Round) find(side Side, cardID string) (Card, bool) {
	for _, c := range r.Column(side) {
		if c.ID == cardID {
			return c, true
		}
	}
	return Card{}, false
}

// TimerRunning reports whether the countdown should keep ticking.
func (r *Round) TimerRunning(timerOn bool) bool {
	return timerOn && r.timeLeft > 0 && !r.Complete()
}

// Tick removes one second from the countdown while it is running.
func (r *Round) Tick(timerOn bool) bool {
	if !r.TimerRunning(timerOn) {
		return false
	}

	r.timeLeft--

	return true
}

// SetTimeLeft restarts the countdown at sec seconds.
func (r *Round) SetTimeLeft(sec int) {
	r.timeLeft = max(0, sec)
}

// Notify sets a message that is shown whatever the feedback setting.
func (r *Round) Notify(text string) {
	r.msg = message{text: text}
}

// Message returns the line to display, or "" when there is nothing to show.
func (r *Round) Message(s Settings) string {
	if r.Complete() {
		return ""
	}
	if r.msg.feedback && !s.ImmediateFeedback {
		return ""
	}
	return r.msg.text
}

// CardView is one button in a column.
type CardView struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Text     string `json:"text"`
	Matched  bool   `json:"matched"`
	Selected bool   `json:"selected"`
}

// RoundView is the rendered state of a round.
type RoundView struct {
	Left     []CardView `json:"left"`
	Right    []CardView `json:"right"`
	Score    int        `json:"score"`
	Streak   int        `json:"streak"`
	Mistakes int        `json:"mistakes"`
	Matched  int        `json:"matched"`
	PoolSize int        `json:"pool_size"`
	Phase    Phase      `json:"phase"`
	TimeLeft int        `json:"time_left"`
	Clock    string     `json:"clock"`
	Danger   bool       `json:"danger"`
	Message  string     `json:"message,omitempty"`
}

func (r *Round) Snapshot(s Settings) RoundView {
	return RoundView{
		Left:     r.columnView(Left),
		Right:    r.columnView(Right),
		Score:    r.score,
		Streak:   r.streak,
		Mistakes: r.mistakes,
		Matched:  r.MatchedCount(),
		PoolSize: len(r.pool),
		Phase:    r.Phase(s.TimerOn),
		TimeLeft: r.timeLeft,
		Clock:    Clock(r.timeLeft),
		Danger:   s.TimerOn && r.timeLeft <= dangerSec,
		Message:  r.Message(s),
	}
}

func (r *Round) columnView(side Side) []CardView {
	cards := r.Column(side)
	sel, hasSel := r.Selected(side)

	out := make([]CardView, 0, len(cards))
	for i, c := range cards {
		text := c.Term
		if side == Right {
			text = c.Def
		}

		out = append(out, CardView{
			Index:    i + 1,
			ID:       c.ID,
			Text:     text,
			Matched:  r.matched[c.Key],
			Selected: hasSel && sel.ID == c.ID,
		})
	}

	return out
}

// Clock formats seconds as mm:ss.
func Clock(sec int) string {
	sec = max(0, sec)

	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}
