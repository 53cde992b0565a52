package step

import (
	"fmt"
	"testing"

	"github.com/SWMChefTory/ai-recipe-summary/internal/caption"
)

func makeSegments(n int) []caption.Segment {
	segs := make([]caption.Segment, n)
	for i := range segs {
		segs[i] = caption.Segment{
			Start: float64(i),
			End:   float64(i) + 0.5,
			Text:  fmt.Sprintf("segment %d", i),
		}
	}
	return segs
}

func TestChunk(t *testing.T) {
	t.Run("600 segments at 150/15 gives 4 chunks", func(t *testing.T) {
		segs := makeSegments(600)
		chunks := Chunk(segs, 150, 15)

		if len(chunks) != 4 {
			t.Fatalf("len(chunks) = %d, want 4", len(chunks))
		}
		// second window starts one overlap before its nominal boundary
		if chunks[1][0].Text != "segment 135" {
			t.Errorf("chunk 2 starts at %q, want segment 135", chunks[1][0].Text)
		}
		// first chunk extends one overlap past its boundary
		if len(chunks[0]) != 165 {
			t.Errorf("len(chunks[0]) = %d, want 165", len(chunks[0]))
		}
		// middle chunks carry overlap on both sides
		if len(chunks[1]) != 180 {
			t.Errorf("len(chunks[1]) = %d, want 180", len(chunks[1]))
		}
		// last chunk stops at the input's end
		last := chunks[3]
		if last[len(last)-1].Text != "segment 599" {
			t.Errorf("last chunk ends at %q", last[len(last)-1].Text)
		}
	})

	t.Run("short input is a single chunk", func(t *testing.T) {
		chunks := Chunk(makeSegments(10), 150, 15)
		if len(chunks) != 1 || len(chunks[0]) != 10 {
			t.Errorf("got %d chunks, first of len %d", len(chunks), len(chunks[0]))
		}
	})

	t.Run("empty input yields no chunks", func(t *testing.T) {
		if chunks := Chunk(nil, 150, 15); len(chunks) != 0 {
			t.Errorf("len(chunks) = %d, want 0", len(chunks))
		}
	})

	t.Run("chunking is deterministic", func(t *testing.T) {
		segs := makeSegments(437)
		a := Chunk(segs, 100, 10)
		b := Chunk(segs, 100, 10)
		if len(a) != len(b) {
			t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
		}
		for i := range a {
			if len(a[i]) != len(b[i]) || a[i][0] != b[i][0] {
				t.Errorf("chunk %d differs between runs", i)
			}
		}
	})

	t.Run("window count is ceil(n/size)", func(t *testing.T) {
		tests := []struct{ n, size, want int }{
			{600, 150, 4},
			{601, 150, 5},
			{150, 150, 1},
			{149, 150, 1},
			{151, 150, 2},
		}
		for _, tt := range tests {
			if got := len(Chunk(makeSegments(tt.n), tt.size, 15)); got != tt.want {
				t.Errorf("Chunk(n=%d, size=%d) gave %d chunks, want %d", tt.n, tt.size, got, tt.want)
			}
		}
	})
}
