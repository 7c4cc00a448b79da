package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettingsNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       Settings
		deckSize int
		want     Settings
	}{
		{
			name:     "within range",
			in:       Settings{RoundSize: 8, TimerSec: 180},
			deckSize: 20,
			want:     Settings{RoundSize: 8, TimerSec: 180},
		},
		{
			name:     "round size floor",
			in:       Settings{RoundSize: 1, TimerSec: 180},
			deckSize: 20,
			want:     Settings{RoundSize: 4, TimerSec: 180},
		},
		{
			name:     "round size capped at deck size",
			in:       Settings{RoundSize: 30, TimerSec: 180},
			deckSize: 20,
			want:     Settings{RoundSize: 20, TimerSec: 180},
		},
		{
			name:     "small deck keeps the minimum",
			in:       Settings{RoundSize: 10, TimerSec: 180},
			deckSize: 2,
			want:     Settings{RoundSize: 4, TimerSec: 180},
		},
		{
			name:     "timer floor",
			in:       Settings{RoundSize: 8, TimerSec: 3},
			deckSize: 20,
			want:     Settings{RoundSize: 8, TimerSec: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize(tt.deckSize))
		})
	}
}

func TestParseNumericInput(t *testing.T) {
	tests := []struct {
		in        string
		roundSize int
		timerSec  int
	}{
		{in: "", roundSize: 4, timerSec: 10},
		{in: "abc", roundSize: 4, timerSec: 10},
		{in: "0", roundSize: 4, timerSec: 10},
		{in: "-30", roundSize: 4, timerSec: 10},
		{in: "6", roundSize: 6, timerSec: 10},
		{in: "90", roundSize: 90, timerSec: 90},
		{in: " 120 ", roundSize: 120, timerSec: 120},
		{in: "45s", roundSize: 45, timerSec: 45},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.roundSize, ParseRoundSize(tt.in), "round size %q", tt.in)
		assert.Equal(t, tt.timerSec, ParseTimerSeconds(tt.in), "timer %q", tt.in)
	}
}

func TestSettingsEncoding(t *testing.T) {
	s := Settings{RoundSize: 6, TimerOn: true, TimerSec: 60, ImmediateFeedback: false}

	assert.JSONEq(t, `{"roundSize":6,"timerOn":true,"timerSec":60,"immediateFeedback":false}`, EncodeSettings(s))
	assert.Equal(t, s, DecodeSettings(EncodeSettings(s)))

	assert.Equal(t, DefaultSettings(), DecodeSettings("not json"))
	assert.Equal(t, DefaultSettings(), DecodeSettings(""))

	partial := DecodeSettings(`{"timerOn":true}`)
	assert.True(t, partial.TimerOn)
	assert.Equal(t, 8, partial.RoundSize)
	assert.Equal(t, 180, partial.TimerSec)
}

func TestSettingsPatchApply(t *testing.T) {
	size, sec := "12", "oops"
	on, off := true, false

	got := SettingsPatch{
		RoundSize:         &size,
		TimerOn:           &on,
		TimerSec:          &sec,
		ImmediateFeedback: &off,
	}.Apply(DefaultSettings())

	assert.Equal(t, Settings{RoundSize: 12, TimerOn: true, TimerSec: 10, ImmediateFeedback: false}, got)
	assert.Equal(t, DefaultSettings(), SettingsPatch{}.Apply(DefaultSettings()))
}
