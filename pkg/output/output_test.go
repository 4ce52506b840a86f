package output

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/tremor-analyzer/pkg/analysis"
	"github.com/RyanBlaney/tremor-analyzer/pkg/motion"
)

func sampleResult() *analysis.Result {
	hz, amp := 5.02, 10.3
	return &analysis.Result{
		DominantFrequencyHz: &hz,
		AverageAmplitude:    &amp,
		SampleCount:         300,
		PeakCount:           15,
		WindowSeconds:       2.99,
		Classification:      analysis.Parkinsonian,
		AnalyzedAt:          time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestNewFormatter(t *testing.T) {
	type test struct {
		format string
		want   Formatter
	}

	tests := []test{
		{"json", &JSONFormatter{}},
		{"", &JSONFormatter{}},
		{"YAML", &YAMLFormatter{}},
		{"yml", &YAMLFormatter{}},
		{"csv", &CSVFormatter{}},
		{"table", &TableFormatter{}},
	}

	for _, tc := range tests {
		got, err := NewFormatter(tc.format)
		if err != nil {
			t.Errorf("NewFormatter(%s): unexpected error %v", tc.format, err)
			continue
		}
		assert.IsType(t, tc.want, got, "NewFormatter(%s)", tc.format)
	}

	_, err := NewFormatter("xml")
	assert.Error(t, err)
}

func TestJSONFormatter(t *testing.T) {
	out, err := (&JSONFormatter{}).Format(sampleResult(), false)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, 5.02, decoded["dominant_frequency_hz"])
	assert.Equal(t, "parkinsonian", decoded["classification"])
	assert.Equal(t, "2024-05-01T09:00:00Z", decoded["analyzed_at"])
}

func TestJSONFormatterSanitizesNonFinite(t *testing.T) {
	data := struct {
		Mean   float64   `json:"mean"`
		Series []float64 `json:"series"`
	}{Mean: math.Inf(1), Series: []float64{1, math.NaN()}}

	out, err := (&JSONFormatter{}).Format(data, true)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mean": 0, "series": [1, 0]}`, string(out))
}

func TestYAMLFormatter(t *testing.T) {
	out, err := (&YAMLFormatter{}).Format(sampleResult(), true)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, 15, decoded["peak_count"])
	assert.Equal(t, "parkinsonian", decoded["classification"])
}

func TestCSVFormatterFlattens(t *testing.T) {
	out, err := (&CSVFormatter{}).Format(map[string]any{
		"result": map[string]any{"classification": "normal", "peaks": 0},
		"id":     "abc",
	}, false)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"field", "value"},
		{"id", "abc"},
		{"result.classification", "normal"},
		{"result.peaks", "0"},
	}, records)
}

func TestCSVFormatterTabular(t *testing.T) {
	samples := SampleTable{
		motion.NewSample(0.3, 0.4, 0.5, 0),
		motion.NewSample(1, 2, 2, 100),
	}

	out, err := (&CSVFormatter{}).Format(samples, false)
	require.NoError(t, err)
	assert.Equal(t, "x,y,z,t_ms\n0.3,0.4,0.5,0\n1,2,2,100\n", string(out))
}

func TestTableFormatter(t *testing.T) {
	points := PointTable{{TimeSeconds: 0, Magnitude: 9.8}, {TimeSeconds: 0.1, Magnitude: 11.8}}

	out, err := (&TableFormatter{}).Format(points, true)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Time Seconds"))
	assert.Contains(t, lines[0], "Magnitude")
	assert.True(t, strings.HasPrefix(lines[1], "------------"))
	assert.Contains(t, lines[3], "0.100")
	assert.Contains(t, lines[3], "11.800")
}

func TestFlattenNilPointers(t *testing.T) {
	flat, err := Flatten(&analysis.Result{Classification: analysis.Insufficient})
	require.NoError(t, err)

	assert.Equal(t, "", flat["dominant_frequency_hz"])
	assert.Equal(t, "insufficient", flat["classification"])
	assert.Equal(t, "0", flat["sample_count"])
}

func TestTitle(t *testing.T) {
	type test struct {
		key  string
		want string
	}

	tests := []test{
		{"dominant_frequency_hz", "Dominant Frequency Hz"},
		{"result.classification", "Result / Classification"},
		{"x", "X"},
	}

	for _, tc := range tests {
		if got := Title(tc.key); got != tc.want {
			t.Errorf("Title(%s): want %v, got %v", tc.key, tc.want, got)
		}
	}
}

func TestSanitize(t *testing.T) {
	nan := math.NaN()
	data := struct {
		Value   *float64        `json:"value"`
		Skipped string          `json:"-"`
		Named   float32         `json:",omitempty"`
		Nested  map[string]any  `json:"nested"`
		When    time.Time       `json:"when"`
		Ratios  map[int]float64 `json:"ratios"`
	}{
		Value:  &nan,
		Named:  float32(math.Inf(-1)),
		Nested: map[string]any{"a": math.Inf(1)},
		Ratios: map[int]float64{1: math.NaN()},
	}

	got, ok := Sanitize(data).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.0, got["value"])
	assert.NotContains(t, got, "Skipped")
	assert.Equal(t, float32(0), got["Named"])
	assert.Equal(t, map[string]any{"a": 0.0}, got["nested"])
	assert.IsType(t, time.Time{}, got["when"])
	assert.Equal(t, map[string]any{"1": 0.0}, got["ratios"])
}
