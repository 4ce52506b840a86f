package output

import (
	"strconv"

	"github.com/RyanBlaney/tremor-analyzer/pkg/motion"
)

// PointTable renders chart points one per row
type PointTable []motion.Point

func (p PointTable) Header() []string {
	return []string{"time_seconds", "magnitude"}
}

func (p PointTable) Rows() [][]string {
	rows := make([][]string, len(p))
	for i, pt := range p {
		rows[i] = []string{
			strconv.FormatFloat(pt.TimeSeconds, 'f', 3, 64),
			strconv.FormatFloat(pt.Magnitude, 'f', 3, 64),
		}
	}
	return rows
}

// SampleTable renders raw samples one per row, in the column order the
// replay source reads back
type SampleTable []motion.Sample

func (s SampleTable) Header() []string {
	return []string{"x", "y", "z", "t_ms"}
}

func (s SampleTable) Rows() [][]string {
	format := func(f float64) string {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	rows := make([][]string, len(s))
	for i, sample := range s {
		rows[i] = []string{
			format(sample.X),
			format(sample.Y),
			format(sample.Z),
			strconv.FormatInt(sample.TimeMs, 10),
		}
	}
	return rows
}
