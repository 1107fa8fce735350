package episode

import "testing"

func TestGuessNumber(t *testing.T) {
	cases := []struct {
		filename string
		want     int
		ok       bool
	}{
		{"[SubsPlease] Sousou no Frieren - 01 (480p) [ABCD1234].mkv", 1, true},
		{"[Judas] Made in Abyss - S01E07 [1080p].mkv", 7, true},
		{"Show Title E12.mkv", 12, true},
		{"Show Title ep 3.mkv", 3, true},
		{"Show Title Episode 24.mkv", 24, true},
		{"Show.Title.-.08v2.1080p.mkv", 8, true},
		{"[Group] Show - 112 [720p].mkv", 112, true},
		// year and crc tags must not win
		{"[Group] Show (2021) - 05 [A1B2C3D4].mkv", 5, true},
		{"Show Title 13.mkv", 13, true},
		// resolution outside brackets is not an episode number
		{"Show Title 720p.mkv", 0, false},
		{"Show Title.mkv", 0, false},
		{"Movie (2019).mkv", 0, false},
	}
	for _, tc := range cases {
		got, ok := GuessNumber(tc.filename)
		if got != tc.want || ok != tc.ok {
			t.Errorf("GuessNumber(%q) = %d, %v; want %d, %v", tc.filename, got, ok, tc.want, tc.ok)
		}
	}
}

func TestGuessResolution(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"[SubsPlease] Sousou no Frieren - 01 (480p) [ABCD].mkv", "480p"},
		{"[Group] Show - 05 [1080P].mkv", "1080p"},
		{"Show Title - 01.mkv", ""},
		{"Show 1080 pixels.mkv", ""},
	}
	for _, tc := range cases {
		if got := GuessResolution(tc.name); got != tc.want {
			t.Errorf("GuessResolution(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		num  int
		want string
	}{
		{1, "01"}, {9, "09"}, {10, "10"}, {112, "112"},
	}
	for _, tc := range cases {
		if got := FormatNumber(tc.num); got != tc.want {
			t.Errorf("FormatNumber(%d) = %s, want %s", tc.num, got, tc.want)
		}
	}
}
