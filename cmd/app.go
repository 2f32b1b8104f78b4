package cmd

import (
	"fmt"
	"log/slog"

	"maidchan/pkg/assistant"
	"maidchan/pkg/bus"
	"maidchan/pkg/config"
	"maidchan/pkg/duty"
	"maidchan/pkg/horoscope"
	"maidchan/pkg/rule"
	"maidchan/pkg/weather"
)

// newRegistry wires the live collaborators into the duty registry.
func newRegistry(cfg *config.Config, log *slog.Logger) (*rule.Registry, error) {
	registry, err := duty.NewRegistry(duty.Deps{
		Name:      cfg.Assistant.Name,
		Horoscope: horoscope.New(cfg.Collaborators.Horoscope, log),
		Weather:   weather.New(cfg.Collaborators.Weather, log),
		Log:       log,
	})
	if err != nil {
		return nil, fmt.Errorf("build rule registry: %w", err)
	}

	return registry, nil
}

func newAssistant(cfg *config.Config, events *bus.MessageBus, log *slog.Logger) (*assistant.Assistant, error) {
	registry, err := newRegistry(cfg, log)
	if err != nil {
		return nil, err
	}

	return assistant.New(registry, cfg.Assistant, events, log), nil
}
