package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/RyanBlaney/tremor-analyzer/pkg/logging"
	"github.com/RyanBlaney/tremor-analyzer/pkg/motion"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source/common"
)

// StdinLocator selects standard input as the replay file
const StdinLocator = "-"

// Config controls replay pacing
type Config struct {
	// Realtime delivers each row at its recorded offset. Otherwise rows are
	// delivered as fast as the sink accepts them.
	Realtime bool `json:"realtime" yaml:"realtime" mapstructure:"realtime"`

	// Spacing is the offset step for rows without a t_ms column
	Spacing time.Duration `json:"spacing" yaml:"spacing" mapstructure:"spacing"`

	Format Format `json:"format" yaml:"format" mapstructure:"format"`
}

// DefaultConfig returns realtime pacing with 100ms spacing
func DefaultConfig() Config {
	return Config{
		Realtime: true,
		Spacing:  100 * time.Millisecond,
		Format:   FormatAuto,
	}
}

type opener func() (io.ReadCloser, error)

// Source replays a recorded log of triaxial readings
type Source struct {
	locator string
	config  Config
	open    opener
	stat    func() error
	logger  logging.Logger
}

// NewSource creates a replay source for a file path or "-" for stdin
func NewSource(locator string, cfg Config) *Source {
	s := newSource(locator, cfg, func() (io.ReadCloser, error) {
		if locator == StdinLocator {
			return io.NopCloser(os.Stdin), nil
		}
		return os.Open(locator)
	})
	s.stat = func() error {
		if locator == StdinLocator {
			return nil
		}
		info, err := os.Stat(locator)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", locator)
		}
		return nil
	}
	return s
}

// NewReaderSource replays from an already open reader
func NewReaderSource(name string, r io.Reader, cfg Config) *Source {
	return newSource(name, cfg, func() (io.ReadCloser, error) {
		return io.NopCloser(r), nil
	})
}

func newSource(locator string, cfg Config, open opener) *Source {
	if cfg.Spacing <= 0 {
		cfg.Spacing = DefaultConfig().Spacing
	}
	if cfg.Format == "" || cfg.Format == FormatAuto {
		cfg.Format = FormatFromPath(locator)
	}

	return &Source{
		locator: locator,
		config:  cfg,
		open:    open,
		stat:    func() error { return nil },
		logger: logging.WithFields(logging.Fields{
			"component": "replay_source",
			"locator":   locator,
		}),
	}
}

func (s *Source) Type() common.SourceType {
	return common.SourceTypeReplay
}

func (s *Source) Probe(ctx context.Context) (*common.Capability, error) {
	if err := s.stat(); err != nil {
		return nil, s.classify(err, "replay log not available")
	}

	return &common.Capability{
		Type:          common.SourceTypeReplay,
		Locator:       s.locator,
		Description:   fmt.Sprintf("replay of %s (%s)", s.locator, s.config.Format),
		NominalRateHz: float64(time.Second) / float64(s.config.Spacing),
	}, nil
}

// Open starts delivering rows. Rows are anchored at capability.Origin (now,
// if unset) plus their offset. Done is closed at end of input.
func (s *Source) Open(ctx context.Context, capability *common.Capability, sink common.Sink) (common.Subscription, error) {
	rc, err := s.open()
	if err != nil {
		return nil, s.classify(err, "cannot open replay log")
	}

	origin := time.Now()
	if capability != nil && !capability.Origin.IsZero() {
		origin = capability.Origin
	}

	feed, feedCtx := common.NewFeed(ctx)
	go func() {
		defer feed.Finish()
		defer rc.Close()
		s.run(feedCtx, rc, origin, sink)
	}()

	return feed, nil
}

func (s *Source) run(ctx context.Context, r io.Reader, origin time.Time, sink common.Sink) {
	logger := s.logger.WithFields(logging.Fields{
		"function": "run",
		"realtime": s.config.Realtime,
	})

	decoder := NewDecoder(r, s.config.Format)
	delivered, skipped := 0, 0
	var nextOffset int64

	defer func() {
		logger.Debug("Replay finished", logging.Fields{
			"delivered": delivered,
			"skipped":   skipped,
		})
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		rec, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		var lineErr *LineError
		if errors.As(err, &lineErr) {
			skipped++
			logger.Warn("Skipping malformed row", logging.Fields{
				"line":  lineErr.Line,
				"error": lineErr.Err.Error(),
			})
			continue
		}
		if err != nil {
			logger.Error(err, "Replay read failed")
			return
		}

		offset := nextOffset
		if rec.OffsetMs != nil {
			offset = *rec.OffsetMs
		}
		nextOffset = offset + s.config.Spacing.Milliseconds()

		at := origin.Add(time.Duration(offset) * time.Millisecond)
		if s.config.Realtime && !wait(ctx, time.Until(at)) {
			return
		}

		sink(motion.Reading{X: rec.X, Y: rec.Y, Z: rec.Z, At: at})
		delivered++
	}
}

// wait blocks for d or until ctx ends. Returns false if ctx ended.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Source) classify(err error, message string) error {
	code := common.ErrCodeCapabilityUnavailable
	if errors.Is(err, fs.ErrPermission) {
		code = common.ErrCodePermissionDenied
	}
	return common.NewSourceError(common.SourceTypeReplay, s.locator, code, message, err)
}
