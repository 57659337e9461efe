package sanitize

import "testing"

func TestFoldAccents(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"mưa rào và dông", "mua rao va dong"},
		{"Nắng nóng gay gắt", "Nang nong gay gat"},
		{"Đêm có mưa vài nơi", "Dem co mua vai noi"},
		{"trời quang mây", "troi quang may"},
		{"plain ascii stays", "plain ascii stays"},
		{"℃ dropped", " dropped"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := FoldAccents(tc.in); got != tc.want {
			t.Errorf("FoldAccents(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCollapseSpaces(t *testing.T) {
	if got := CollapseSpaces("  mua   rao \t nhe "); got != "mua rao nhe" {
		t.Errorf("CollapseSpaces = %q", got)
	}
}
