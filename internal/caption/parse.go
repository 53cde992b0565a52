package caption

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	styleTagRe  = regexp.MustCompile(`<[^>]*>`)
	timestampRe = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})[.,](\d{1,3})$`)
	shortTimeRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})[.,](\d{1,3})$`)

	// Invisible characters that leak into auto-generated cue text.
	invisibleReplacer = strings.NewReplacer(
		"​", "", // zero-width space
		"‌", "", // zero-width non-joiner
		"‍", "", // zero-width joiner
		"‎", "", // left-to-right mark
		"‏", "", // right-to-left mark
		"\uFEFF", "", // BOM
		"‪", "", // LTR embedding
		"‫", "", // RTL embedding
		"‬", "", // pop directional formatting
	)
)

// Parse converts SRT or WebVTT subtitle text into a normalized segment
// sequence. The format is detected from the content; cue styling tags and
// zero-width control characters are stripped, and empty cues are dropped.
func Parse(text string) ([]Segment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty subtitle text")
	}

	segments := []Segment{}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.Contains(line, "-->") {
			continue
		}

		start, end, err := parseCueTiming(line)
		if err != nil {
			return nil, err
		}

		var textLines []string
		for i++; i < len(lines); i++ {
			cueLine := strings.TrimSpace(lines[i])
			if cueLine == "" {
				break
			}
			if clean := CleanCueText(cueLine); clean != "" {
				textLines = append(textLines, clean)
			}
		}

		if len(textLines) == 0 {
			continue
		}
		segments = append(segments, Segment{
			Start: start,
			End:   end,
			Text:  strings.Join(textLines, " "),
		})
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("no cues found in subtitle text")
	}
	return Normalize(segments), nil
}

// parseCueTiming splits "00:00:01.000 --> 00:00:04,200 align:start" into
// start and end seconds.
func parseCueTiming(line string) (float64, float64, error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed cue timing %q", line)
	}

	start, err := parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}

	// VTT cue settings (align:, position:) may trail the end timestamp.
	endField := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endField) == 0 {
		return 0, 0, fmt.Errorf("malformed cue timing %q", line)
	}
	end, err := parseTimestamp(endField[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseTimestamp converts "HH:MM:SS.mmm" or "HH:MM:SS,mmm" (or the short
// WebVTT "MM:SS.mmm" form) into float seconds.
func parseTimestamp(ts string) (float64, error) {
	if m := timestampRe.FindStringSubmatch(ts); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		sec, _ := strconv.Atoi(m[3])
		frac, _ := strconv.ParseFloat("0."+m[4], 64)
		return float64(h*3600+min*60+sec) + frac, nil
	}
	if m := shortTimeRe.FindStringSubmatch(ts); m != nil {
		min, _ := strconv.Atoi(m[1])
		sec, _ := strconv.Atoi(m[2])
		frac, _ := strconv.ParseFloat("0."+m[3], 64)
		return float64(min*60+sec) + frac, nil
	}
	return 0, fmt.Errorf("malformed timestamp %q", ts)
}

// CleanCueText strips styling tags (<c>, <i>, inline <00:00:00.000> word
// timings) and invisible control characters from cue text.
func CleanCueText(text string) string {
	text = styleTagRe.ReplaceAllString(text, "")
	text = invisibleReplacer.Replace(text)
	return strings.TrimSpace(text)
}
