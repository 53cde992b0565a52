package caption

// Origin distinguishes creator-uploaded subtitle tracks from
// platform-generated ones and from our own speech-to-text fallback.
type Origin string

const (
	OriginManual Origin = "manual"
	OriginAuto   Origin = "auto"
	OriginSTT    Origin = "stt"
)

// Segment is one timed span of transcript text. After normalization a segment
// always satisfies End > Start.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is the outcome of caption acquisition: a normalized, start-ordered
// segment sequence and the bare two-letter language code. Immutable once
// produced.
type Result struct {
	Segments []Segment
	Language string
	Origin   Origin
}

// Track describes one subtitle track advertised for a video.
type Track struct {
	Language   string // raw tag as advertised, possibly suffixed ("ko-orig")
	Origin     Origin
	URL        string // direct download URL, may be empty
	Translated bool   // machine-translated variant, always skipped
	Format     string // "srt" or "vtt"
}
