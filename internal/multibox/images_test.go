package multibox

import "testing"

func TestPosterExt(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://s4.anilist.co/file/cover/medium/b101.jpg", ".jpg"},
		{"https://s4.anilist.co/file/cover/medium/b102.webp?size=large", ".webp"},
		{"https://s4.anilist.co/file/cover/b103.PNG", ".png"},
		{"https://s4.anilist.co/file/cover/no-extension", ".png"},
	}
	for _, tc := range cases {
		if got := posterExt(tc.url); got != tc.want {
			t.Errorf("posterExt(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
