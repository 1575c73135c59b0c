package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog/log"
)

// DefaultJob is the Pushgateway job name.
const DefaultJob = "booktopia_scraper"

// ExportConfig selects where metrics go. Empty targets are skipped.
type ExportConfig struct {
	// PushgatewayURL, e.g. http://localhost:9091
	PushgatewayURL string

	// Job name on the Pushgateway (DefaultJob if empty).
	Job string

	// Textfile is a path for the node_exporter textfile collector. It
	// should end in .prom.
	Textfile string

	// Gatherer defaults to Gatherer.
	Gatherer prometheus.Gatherer
}

// Enabled reports whether any export target is configured.
func (c ExportConfig) Enabled() bool {
	return c.PushgatewayURL != "" || c.Textfile != ""
}

// Export pushes and/or writes the gathered metrics. Both targets are
// attempted; their errors are joined.
func Export(ctx context.Context, cfg ExportConfig) error {
	if !cfg.Enabled() {
		return nil
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = Gatherer
	}
	job := cfg.Job
	if job == "" {
		job = DefaultJob
	}

	var errs []error

	if cfg.PushgatewayURL != "" {
		err := push.New(cfg.PushgatewayURL, job).
			Gatherer(gatherer).
			PushContext(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("push to %s: %w", cfg.PushgatewayURL, err))
		} else {
			log.Info().Str("url", cfg.PushgatewayURL).Str("job", job).Msg("Pushed metrics")
		}
	}

	if cfg.Textfile != "" {
		if err := prometheus.WriteToTextfile(cfg.Textfile, gatherer); err != nil {
			errs = append(errs, fmt.Errorf("write textfile %s: %w", cfg.Textfile, err))
		} else {
			log.Info().Str("path", cfg.Textfile).Msg("Wrote metrics textfile")
		}
	}

	return errors.Join(errs...)
}
