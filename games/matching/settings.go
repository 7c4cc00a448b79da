/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package matching

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	MinRoundSize = 4
	MinTimerSec  = 10
)

// Settings parameterize how rounds are built. They outlive individual rounds.
type Settings struct {
	RoundSize         int  `json:"roundSize"`
	TimerOn           bool `json:"timerOn"`
	TimerSec          int  `json:"timerSec"`
	ImmediateFeedback bool `json:"immediateFeedback"`
}

func DefaultSettings() Settings {
	return Settings{
		RoundSize:         8,
		TimerOn:           false,
		TimerSec:          180,
		ImmediateFeedback: true,
	}
}

// MaxRoundSize is the largest round size a deck of deckSize cards allows.
func MaxRoundSize(deckSize int) int {
	return max(MinRoundSize, deckSize)
}

// Normalize clamps the numeric settings into their valid ranges for a deck
// of deckSize cards.
func (s Settings) Normalize(deckSize int) Settings {
	s = s.floor()
	s.RoundSize = min(s.RoundSize, MaxRoundSize(deckSize))

	return s
}

// floor applies the lower bounds only. Stored settings are floored on load so
// a preferred round size survives switching to a smaller word list.
func (s Settings) floor() Settings {
	s.RoundSize = max(s.RoundSize, MinRoundSize)
	s.TimerSec = max(s.TimerSec, MinTimerSec)

	return s
}

// EncodeSettings returns the stored form of s.
func EncodeSettings(s Settings) string {
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}

	return string(data)
}

// DecodeSettings parses stored settings, starting from the defaults so that
// missing fields keep their default values. Unreadable input yields the defaults.
func DecodeSettings(data string) Settings {
	s := DefaultSettings()

	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return DefaultSettings()
	}

	return s
}

// ParseRoundSize coerces user input to a round size. Anything that is not a
// number becomes the minimum.
func ParseRoundSize(input string) int {
	return max(MinRoundSize, parseLeadingInt(input))
}

// ParseTimerSeconds coerces user input to a countdown length of at least
// MinTimerSec seconds.
func ParseTimerSeconds(input string) int {
	return max(MinTimerSec, parseLeadingInt(input))
}

// parseLeadingInt reads an optionally signed run of digits at the start of
// input, the way a number field reports partial entries. It returns 0 when
// there is none.
func parseLeadingInt(input string) int {
	input = strings.TrimSpace(input)

	end := 0
	if end < len(input) && (input[end] == '-' || input[end] == '+') {
		end++
	}
	for end < len(input) && input[end] >= '0' && input[end] <= '9' {
		end++
	}

	n, err := strconv.Atoi(input[:end])
	if err != nil {
		return 0
	}

	return n
}

// SettingsPatch holds the fields a client changed. Numeric fields arrive as
// raw input text and are coerced on apply.
type SettingsPatch struct {
	RoundSize         *string `json:"round_size,omitempty"`
	TimerOn           *bool   `json:"timer_on,omitempty"`
	TimerSec          *string `json:"timer_sec,omitempty"`
	ImmediateFeedback *bool   `json:"immediate_feedback,omitempty"`
}

// Apply returns s with the patch applied.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.RoundSize != nil {
		s.RoundSize = ParseRoundSize(*p.RoundSize)
	}
	if p.TimerOn != nil {
		s.TimerOn = *p.TimerOn
	}
	if p.TimerSec != nil {
		s.TimerSec = ParseTimerSeconds(*p.TimerSec)
	}
	if p.ImmediateFeedback != nil {
		s.ImmediateFeedback = *p.ImmediateFeedback
	}

	return s
}
