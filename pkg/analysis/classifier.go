package analysis

import (
	"fmt"
	"strings"
)

// Classification is the coarse clinical category of a window
type Classification string

const (
	Parkinsonian Classification = "parkinsonian"
	Essential    Classification = "essential"
	Normal       Classification = "normal"
	Insufficient Classification = "insufficient"
)

func (c Classification) String() string {
	return string(c)
}

// ParseClassification is the inverse of String
func ParseClassification(s string) (Classification, error) {
	switch c := Classification(strings.ToLower(strings.TrimSpace(s))); c {
	case Parkinsonian, Essential, Normal, Insufficient:
		return c, nil
	default:
		return "", fmt.Errorf("unknown classification: %q", s)
	}
}

// Band is an inclusive frequency range mapped to a classification
type Band struct {
	Classification Classification `json:"classification" yaml:"classification"`
	MinHz          float64        `json:"min_hz" yaml:"min_hz"`
	MaxHz          float64        `json:"max_hz" yaml:"max_hz"`
}

// Contains reports whether hz lies within the inclusive band
func (b Band) Contains(hz float64) bool {
	return hz >= b.MinHz && hz <= b.MaxHz
}

// Bands are evaluated in order and the first match wins. The Parkinsonian
// and Essential bands share 6.0 Hz, which therefore classifies as Parkinsonian.
var Bands = []Band{
	{Classification: Parkinsonian, MinHz: 4.0, MaxHz: 6.0},
	{Classification: Essential, MinHz: 6.0, MaxHz: 12.0},
}

// Classify maps a frequency to its band, or Normal when no band matches
func Classify(hz float64) Classification {
	for _, band := range Bands {
		if band.Contains(hz) {
			return band.Classification
		}
	}
	return Normal
}
