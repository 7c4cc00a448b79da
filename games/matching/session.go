/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package matching

import (
	"context"
	"fmt"
	"strings"

	"github.com/Seednode/matchbox/share"
	"go.uber.org/zap"
)

// Storage keys, one value per browser.
const (
	KeyText     = "matching_game_dataset_v1"
	KeySettings = "matching_game_settings_v1"
)

// Store is durable key-value storage for the saved word list and settings.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type Option func(*Session)

// WithSource sets the randomness used for pools and column order.
func WithSource(src Source) Option {
	return func(s *Session) { s.src = src }
}

// WithSample replaces the built-in word list shown to new players.
func WithSample(text string) Option {
	return func(s *Session) {
		if strings.TrimSpace(text) != "" {
			s.sample = text
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// Session is one player's game: the word list, the settings and the round in
// play. Every change arrives as an explicit event; when the deck or the round
// size changes the pool is redrawn and the round starts over.
//
// A Session is not safe for concurrent use.
type Session struct {
	store  Store
	src    Source
	sample string
	log    *zap.Logger

	text     string
	deck     Deck
	settings Settings
	round    *Round
	fragment string
}

func NewSession(store Store, opts ...Option) *Session {
	s := &Session{
		store:    store,
		sample:   SampleData,
		log:      zap.NewNop(),
		settings: DefaultSettings(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.round = NewRound(s.src, nil, s.settings.TimerSec)

	return s
}

// Load restores settings and picks the starting word list: a shared fragment
// wins over saved text, which wins over the sample. Storage failures fall
// back to defaults.
func (s *Session) Load(ctx context.Context, fragment string) {
	s.settings = DefaultSettings()

	raw, ok, err := s.store.Get(ctx, KeySettings)
	switch {
	case err != nil:
		s.log.Warn("load settings", zap.Error(err))
	case ok:
		s.settings = DecodeSettings(raw).floor()
	}

	text := s.decode(fragment)
	if text != "" {
		s.fragment = strings.TrimPrefix(fragment, "#")
	}

	if text == "" {
		saved, ok, err := s.store.Get(ctx, KeyText)
		if err != nil {
			s.log.Warn("load saved text", zap.Error(err))
		}
		if ok {
			text = saved
		}
	}

	if text == "" {
		text = s.sample
	}

	s.SetText(text)
}

func (s *Session) decode(fragment string) string {
	text, err := share.DecodeFragment(fragment)
	if err != nil {
		s.log.Debug("ignoring malformed fragment", zap.Error(err))
		return ""
	}
	return text
}

// SetText replaces the word list, rebuilding the deck and starting a new round.
func (s *Session) SetText(text string) {
	s.text = text
	s.deck = BuildDeck(ParsePairs(text))
	s.Reshuffle()
}

// FragmentChanged handles a new URL fragment. It returns true when the word
// list changed.
func (s *Session) FragmentChanged(fragment string) bool {
	s.fragment = strings.TrimPrefix(fragment, "#")

	text := s.decode(fragment)
	if text == "" || text == s.text {
		return false
	}

	s.SetText(text)

	return true
}

// UpdateSettings applies patch and persists the result. The round size is
// capped to the deck only when the patch sets it, and only a new round size
// redraws the pool. The new settings take effect even when they cannot be stored.
func (s *Session) UpdateSettings(ctx context.Context, patch SettingsPatch) error {
	prev := s.settings
	next := patch.Apply(prev).floor()
	if patch.RoundSize != nil {
		next = next.Normalize(len(s.deck))
	}
	s.settings = next

	switch {
	case s.settings.RoundSize != prev.RoundSize:
		s.Reshuffle()
	case s.settings.TimerSec != prev.TimerSec:
		s.round.SetTimeLeft(s.settings.TimerSec)
	}

	if err := s.store.Set(ctx, KeySettings, EncodeSettings(s.settings)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	return nil
}

// Reshuffle draws a fresh pool from the deck and starts a new round.
func (s *Session) Reshuffle() {
	pool := SamplePool(s.src, s.deck, s.settings.RoundSize)
	s.round = NewRound(s.src, pool, s.settings.TimerSec)
}

// ResetRound replays the current pool in a new order.
func (s *Session) ResetRound() {
	s.round.Reset(s.src, s.settings.TimerSec)
}

func (s *Session) Select(side Side, cardID string) Outcome {
	out := s.round.Select(side, cardID, s.settings.TimerOn)
	s.log.Debug("select",
		zap.String("side", string(side)),
		zap.String("card", cardID),
		zap.Stringer("outcome", out),
	)

	return out
}

// Tick advances the countdown by one second.
func (s *Session) Tick() bool {
	return s.round.Tick(s.settings.TimerOn)
}

// TimerRunning reports whether the owner should keep delivering ticks.
func (s *Session) TimerRunning() bool {
	return s.round.TimerRunning(s.settings.TimerOn)
}

// Save stores the current word list for the next visit.
func (s *Session) Save(ctx context.Context) error {
	if err := s.store.Set(ctx, KeyText, s.text); err != nil {
		return fmt.Errorf("save text: %w", err)
	}

	s.round.Notify(MessageSaved)

	return nil
}

// UpdateFragment returns the fragment that shares the current word list.
func (s *Session) UpdateFragment() string {
	s.fragment = share.EncodeFragment(s.text)

	return s.fragment
}

// LoadSample switches to the built-in word list and clears the fragment.
func (s *Session) LoadSample() {
	s.fragment = ""
	s.SetText(strings.TrimSpace(s.sample))
}

// ShareLink builds an absolute link to base that carries the word list.
func (s *Session) ShareLink(base string) (string, error) {
	link, err := share.Link(base, strings.TrimSpace(s.text))
	if err != nil {
		return "", err
	}

	s.round.Notify(MessageCopied)

	return link, nil
}

func (s *Session) Text() string       { return s.text }
func (s *Session) Deck() Deck         { return s.deck }
func (s *Session) Settings() Settings { return s.settings }
func (s *Session) Round() *Round      { return s.round }
func (s *Session) Fragment() string   { return s.fragment }

// View is everything a client needs to draw the game.
type View struct {
	Round        RoundView `json:"round"`
	Settings     Settings  `json:"settings"`
	Text         string    `json:"text"`
	DeckSize     int       `json:"deck_size"`
	MaxRoundSize int       `json:"max_round_size"`
	Fragment     string    `json:"fragment"`
}

func (s *Session) View() View {
	return View{
		Round:        s.round.Snapshot(s.settings),
		Settings:     s.settings,
		Text:         s.text,
		DeckSize:     len(s.deck),
		MaxRoundSize: MaxRoundSize(len(s.deck)),
		Fragment:     s.fragment,
	}
}
