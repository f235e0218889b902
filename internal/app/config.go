package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// PipelinePath points to a pipeline .hcl file or a directory of them.
	PipelinePath string

	LogFormat      string
	LogLevel       string
	MaxConcurrency int

	// EventsURL, when set, enables the socket.io event bridge towards the
	// editor UI. EventsNamespace selects the namespace to join.
	EventsURL       string
	EventsNamespace string
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
