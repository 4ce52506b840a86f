package synthetic

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/RyanBlaney/tremor-analyzer/pkg/logging"
	"github.com/RyanBlaney/tremor-analyzer/pkg/motion"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source/common"
)

// Source emits synthetic readings on a ticker. It stands in for a device
// sensor and is only used when the caller selects it explicitly.
type Source struct {
	locator   string
	generator *Generator
	logger    logging.Logger
}

// NewSource creates a live synthetic source
func NewSource(locator string, cfg Config, noise NoiseFunc) *Source {
	return &Source{
		locator:   locator,
		generator: NewGenerator(cfg, noise),
		logger: logging.WithFields(logging.Fields{
			"component": "synthetic_source",
			"locator":   locator,
		}),
	}
}

func (s *Source) Type() common.SourceType {
	return common.SourceTypeSynthetic
}

func (s *Source) Probe(ctx context.Context) (*common.Capability, error) {
	cfg := s.generator.Config()
	return &common.Capability{
		Type:          common.SourceTypeSynthetic,
		Locator:       s.locator,
		Description:   fmt.Sprintf("synthetic %.2f Hz tremor, noise ±%.2f", cfg.TargetHz, cfg.Noise),
		NominalRateHz: float64(time.Second) / float64(cfg.Spacing),
	}, nil
}

// Open emits one reading per configured spacing until the subscription is
// closed or ctx ends. Axes are the (0.3, 0.4, 0.5) direction scaled so the
// reading's norm equals the waveform magnitude.
func (s *Source) Open(ctx context.Context, capability *common.Capability, sink common.Sink) (common.Subscription, error) {
	cfg := s.generator.Config()
	feed, feedCtx := common.NewFeed(ctx)

	norm := math.Sqrt(FractionX*FractionX + FractionY*FractionY + FractionZ*FractionZ)
	start := time.Now()

	s.logger.Debug("Synthetic source opened", logging.Fields{
		"target_hz":  cfg.TargetHz,
		"spacing_ms": cfg.Spacing.Milliseconds(),
		"noise":      cfg.Noise,
	})

	go func() {
		defer feed.Finish()

		ticker := time.NewTicker(cfg.Spacing)
		defer ticker.Stop()

		for {
			select {
			case <-feedCtx.Done():
				return
			case now := <-ticker.C:
				m := s.generator.MagnitudeAt(now.Sub(start).Milliseconds())
				scale := m / norm
				sink(motion.NewReading(FractionX*scale, FractionY*scale, FractionZ*scale, now))
			}
		}
	}()

	return feed, nil
}
