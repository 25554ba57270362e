// Package logging builds the process-wide zap logger. Services and handlers
// derive named children from it.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns the root logger for the given environment. Production gets JSON
// output at Info; everything else gets the console encoder at Debug.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
