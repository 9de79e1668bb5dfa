package application

import (
	"context"
	"log/slog"
)

// Status values reported per dependency.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// HealthReport is the outcome of a services health check.
type HealthReport struct {
	Healthy  bool
	Services map[string]string
}

// HealthService runs named dependency checks. Check order does not matter.
type HealthService struct {
	checks map[string]Check
	logger *slog.Logger
}

// NewHealthService creates a HealthService over the given checks.
func NewHealthService(checks map[string]Check, logger *slog.Logger) *HealthService {
	return &HealthService{checks: checks, logger: logger}
}

// CheckServices runs every check and reports each as ok or error.
func (s *HealthService) CheckServices(ctx context.Context) HealthReport {
	report := HealthReport{Healthy: true, Services: make(map[string]string, len(s.checks))}

	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.Warn("health check failed", "service", name, "error", err)
			report.Services[name] = StatusError
			report.Healthy = false
			continue
		}
		report.Services[name] = StatusOK
	}

	return report
}

// LanguageModelCheck returns a Check that sends a trivial prompt.
func LanguageModelCheck(complete func(ctx context.Context, prompt string) (string, error)) Check {
	return func(ctx context.Context) error {
		_, err := complete(ctx, "你好")
		return err
	}
}
