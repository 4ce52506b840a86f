package source

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/RyanBlaney/tremor-analyzer/pkg/source/common"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source/replay"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source/synthetic"
)

// Constructor builds a source for a locator
type Constructor func(locator string) (common.Source, error)

// Factory creates sample sources by type or by locator
type Factory struct {
	constructors map[common.SourceType]Constructor
	detector     common.SourceDetector
	mu           sync.RWMutex
}

// Options carries the defaults handed to the built-in sources
type Options struct {
	Synthetic synthetic.Config
	Replay    replay.Config
}

// DefaultOptions returns the built-in source defaults
func DefaultOptions() Options {
	return Options{
		Synthetic: synthetic.DefaultConfig(),
		Replay:    replay.DefaultConfig(),
	}
}

// NewFactory creates a new source factory with the synthetic and replay
// sources registered
func NewFactory(opts Options) *Factory {
	f := &Factory{
		constructors: make(map[common.SourceType]Constructor),
		detector:     NewDetector(),
	}

	f.RegisterConstructor(common.SourceTypeSynthetic, func(locator string) (common.Source, error) {
		cfg, err := synthetic.ParseLocator(locator, opts.Synthetic)
		if err != nil {
			return nil, common.NewSourceError(common.SourceTypeSynthetic, locator,
				common.ErrCodeInvalidFormat, "invalid synthetic locator", err)
		}
		return synthetic.NewSource(locator, cfg, nil), nil
	})
	f.RegisterConstructor(common.SourceTypeReplay, func(locator string) (common.Source, error) {
		return replay.NewSource(locator, opts.Replay), nil
	})

	return f
}

// Create builds a source of the given type
func (f *Factory) Create(sourceType common.SourceType, locator string) (common.Source, error) {
	f.mu.RLock()
	constructor, exists := f.constructors[sourceType]
	f.mu.RUnlock()

	if !exists {
		return nil, common.NewSourceError(
			sourceType, locator, common.ErrCodeUnsupported,
			fmt.Sprintf("unsupported source type: %s", sourceType),
			nil,
		)
	}

	return constructor(locator)
}

// DetectAndCreate detects the source type and creates the source
func (f *Factory) DetectAndCreate(ctx context.Context, locator string) (common.Source, error) {
	f.mu.RLock()
	detector := f.detector
	f.mu.RUnlock()

	sourceType, err := detector.DetectType(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("failed to detect source type: %w", err)
	}

	return f.Create(sourceType, locator)
}

// RegisterConstructor registers or replaces the constructor for a type
func (f *Factory) RegisterConstructor(sourceType common.SourceType, constructor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.constructors[sourceType] = constructor
}

// SetDetector replaces the locator detector
func (f *Factory) SetDetector(detector common.SourceDetector) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.detector = detector
}

// SupportedTypes returns the registered source types in sorted order
func (f *Factory) SupportedTypes() []common.SourceType {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]common.SourceType, 0, len(f.constructors))
	for sourceType := range f.constructors {
		types = append(types, sourceType)
	}
	slices.Sort(types)
	return types
}
