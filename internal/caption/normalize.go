package caption

import (
	"math"
	"sort"
)

const (
	// minDuration is the enforced minimum segment length. Raw tracks often
	// contain zero-duration or inverted cues; every normalized segment ends
	// at least this far after it starts.
	minDuration = 0.1

	// timePrecision is the number of decimal places kept on timestamps.
	timePrecision = 3
)

// Normalize sorts segments by start time, rounds timestamps, enforces the
// minimum duration, and drops empty-text cues. The input slice is not
// modified.
func Normalize(segments []Segment) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		if seg.Text == "" {
			continue
		}
		start := roundTime(seg.Start)
		end := roundTime(seg.End)
		if start < 0 {
			start = 0
		}
		if end <= start {
			end = start + minDuration
		}
		out = append(out, Segment{Start: start, End: end, Text: seg.Text})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}

// JoinText concatenates segment texts with single spaces, the form prompt
// templates expect.
func JoinText(segments []Segment) string {
	n := 0
	for _, seg := range segments {
		n += len(seg.Text) + 1
	}
	buf := make([]byte, 0, n)
	for i, seg := range segments {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, seg.Text...)
	}
	return string(buf)
}

func roundTime(v float64) float64 {
	factor := math.Pow10(timePrecision)
	return math.Round(v*factor) / factor
}
