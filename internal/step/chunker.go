package step

import "github.com/SWMChefTory/ai-recipe-summary/internal/caption"

const (
	DefaultChunkSize = 150
	DefaultOverlap   = 15
)

// Chunk partitions segments into fixed-size windows extended by a fixed
// overlap on both sides of each boundary, so an instruction spanning a
// boundary appears whole in at least one chunk. Chunking is a pure function
// of (len(segments), size, overlap); the returned chunks alias the input
// slice.
func Chunk(segments []caption.Segment, size, overlap int) [][]caption.Segment {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}

	n := len(segments)
	var chunks [][]caption.Segment

	for start := 0; start < n; start += size {
		end := min(start+size, n)
		chunkStart := max(0, start-overlap)
		chunkEnd := min(n, end+overlap)
		chunks = append(chunks, segments[chunkStart:chunkEnd])
	}
	return chunks
}
