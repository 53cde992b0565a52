package briefing

import (
	"strings"
	"testing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips html tags",
			in:   `이 <b>레시피</b> 최고예요<br>또 만들 거예요`,
			want: "이 레시피 최고예요 또 만들 거예요",
		},
		{
			name: "decodes entities",
			in:   "salt &amp; pepper &quot;to taste&quot;",
			want: `salt & pepper "to taste"`,
		},
		{
			name: "drops emoji",
			in:   "So good 😍🔥 definitely making this ❤️",
			want: "So good definitely making this",
		},
		{
			name: "collapses whitespace",
			in:   "first line\n\n  second\tline",
			want: "first line second line",
		},
		{
			name: "empty after cleaning",
			in:   "🔥🔥🔥",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUsable(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"too short", "great", false},
		{"at lower bound", "great!", true},
		{"normal", "Tried this with tofu instead of pork and it still worked.", true},
		{"at upper bound", strings.Repeat("a", 300), true},
		{"too long", strings.Repeat("a", 301), false},
		{"korean runes counted not bytes", "정말 맛있어요", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Usable(tt.in); got != tt.want {
				t.Errorf("Usable(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
