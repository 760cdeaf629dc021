package textutil

import "testing"

func TestShorten(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{name: "fits", text: "  Hello   world \n", width: 20, want: "Hello world"},
		{name: "exact", text: "abc def", width: 7, want: "abc def"},
		{name: "cut at word", text: "The quick brown fox jumps", width: 15, want: "The quick..."},
		{name: "first word too long", text: "Supercalifragilistic word", width: 10, want: "..."},
		{name: "runes not bytes", text: "héllo wörld again", width: 14, want: "héllo wörld..."},
		{name: "empty", text: "   ", width: 5, want: ""},
		{name: "break after hyphen", text: "a well-known fact about models", width: 12, want: "a well-..."},
		{name: "compound word", text: "state-of-the-art models", width: 12, want: "state-of-..."},
		{name: "single letter prefix", text: "x-ray vision", width: 5, want: "..."},
		{name: "double dash", text: "co--op games", width: 5, want: "co..."},
		{name: "hyphen later in text", text: "re-run the pre-trained-models now", width: 20, want: "re-run the pre-..."},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Shorten(tc.text, tc.width, Ellipsis); got != tc.want {
				t.Fatalf("Shorten(%q, %d) = %q, want %q", tc.text, tc.width, got, tc.want)
			}
		})
	}
}

func TestShortenNeverExceedsWidth(t *testing.T) {
	t.Parallel()

	text := "one two three four five six seven eight nine ten eleven twelve"
	for width := 3; width < 70; width++ {
		got := Shorten(text, width, Ellipsis)
		if n := len([]rune(got)); n > width {
			t.Fatalf("width %d: got %d runes (%q)", width, n, got)
		}
	}
}
