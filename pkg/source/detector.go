package source

import (
	"context"
	"os"
	"strings"

	"github.com/RyanBlaney/tremor-analyzer/pkg/source/common"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source/replay"
)

// Detector maps locators to source types. Synthetic sources are only chosen
// for an explicit synthetic:// locator.
type Detector struct {
	stat func(string) (os.FileInfo, error)
}

func NewDetector() *Detector {
	return &Detector{stat: os.Stat}
}

func (sd *Detector) DetectType(ctx context.Context, locator string) (common.SourceType, error) {
	// Locator-based detection
	if sourceType := sd.detectFromLocator(locator); sourceType != common.SourceTypeUnsupported {
		return sourceType, nil
	}

	// Fall back to checking for an existing regular file
	return sd.detectFromFilesystem(locator)
}

// detectFromLocator looks at the scheme and extension only
func (sd *Detector) detectFromLocator(locator string) common.SourceType {
	lower := strings.ToLower(strings.TrimSpace(locator))

	if strings.HasPrefix(lower, "synthetic:") {
		return common.SourceTypeSynthetic
	}

	if lower == replay.StdinLocator {
		return common.SourceTypeReplay
	}

	if strings.Contains(lower, "://") {
		return common.SourceTypeUnsupported
	}

	for _, ext := range []string{".csv", ".jsonl", ".ndjson", ".json", ".txt"} {
		if strings.HasSuffix(lower, ext) {
			return common.SourceTypeReplay
		}
	}

	return common.SourceTypeUnsupported
}

func (sd *Detector) detectFromFilesystem(locator string) (common.SourceType, error) {
	if !strings.Contains(locator, "://") {
		if info, err := sd.stat(locator); err == nil && info.Mode().IsRegular() {
			return common.SourceTypeReplay, nil
		}
	}

	return common.SourceTypeUnsupported, common.NewSourceError(
		common.SourceTypeUnsupported, locator, common.ErrCodeUnsupported,
		"unable to determine source type from locator",
		nil,
	)
}
