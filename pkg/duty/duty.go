// Package duty holds the assistant's concrete rules and wires them into a
// rule.Registry in their fixed dispatch order.
package duty

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"maidchan/pkg/config"
	"maidchan/pkg/horoscope"
	"maidchan/pkg/rule"
	"maidchan/pkg/weather"
)

// jst is the assistant's local time zone.
var jst = time.FixedZone("JST", 9*60*60)

// Deps carries the collaborators and sources of nondeterminism rules use.
type Deps struct {
	// Name is the assistant name members address, e.g. "メイドちゃん".
	Name      string
	Horoscope horoscope.Fetcher
	Weather   weather.Fetcher
	Now       func() time.Time
	// Intn returns a uniform value in [0, n).
	Intn func(n int) int
	Log  *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if strings.TrimSpace(d.Name) == "" {
		d.Name = config.DefaultAssistantName
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Intn == nil {
		d.Intn = rand.IntN
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}

	return d
}

// Register adds every duty to b. Restricted-scope duties come first, in the
// order they are matched.
func Register(b *rule.Builder, deps Deps) error {
	if deps.Horoscope == nil {
		return errors.New("horoscope fetcher is required")
	}
	if deps.Weather == nil {
		return errors.New("weather fetcher is required")
	}
	deps = deps.withDefaults()

	restricted := []rule.Rule{
		NewChoicePicker(deps.Intn),
		NewFlatteryReaction(deps.Name, deps.Intn),
		NewHoroscopeReader(deps.Horoscope, deps.Now),
		Morning(),
		Night(),
		WelcomeHome(),
		NewPiResponder(),
		Fatigue(),
		Departure(),
	}
	all := []rule.Rule{
		NewComplimentComposer(deps.Name),
		NewWeatherReporter(deps.Name, deps.Weather, deps.Now, deps.Log),
	}

	for _, r := range restricted {
		if err := b.Register(rule.ScopeRestricted, r); err != nil {
			return fmt.Errorf("register %s: %w", r.Name(), err)
		}
	}
	for _, r := range all {
		if err := b.Register(rule.ScopeAll, r); err != nil {
			return fmt.Errorf("register %s: %w", r.Name(), err)
		}
	}

	return nil
}

// NewRegistry builds the frozen registry with every duty registered.
func NewRegistry(deps Deps) (*rule.Registry, error) {
	b := rule.NewBuilder()
	if err := Register(b, deps); err != nil {
		return nil, err
	}

	return b.Build(), nil
}

func containsAny(text string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}

	return false
}

func mention(userID string) string {
	return "<@" + userID + ">"
}

// lastRunes returns the final n characters of s, or all of s when shorter.
func lastRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[len(runes)-n:])
}
