package service

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "<button/>", "<button/>"},
		{"empty marker", "<div><!-- react-empty: 12 --></div>", "<div></div>"},
		{"empty marker newline", "<div>\n<!-- react-empty: 3 -->\n</div>", "<div>\n</div>"},
		{"text markers", "<p><!-- react-text: 4 -->hi<!-- /react-text --></p>", "<p>hi</p>"},
		{"text markers newline", "<!-- react-text: 4 -->\nhi\n<!-- /react-text -->\n", "hi\n"},
		{"only one newline", "<!-- react-empty: 1 -->\n\nx", "\nx"},
		{"nested split", "<!-- react-<!-- react-empty: 1 -->empty: 2 -->x", "x"},
		{"other comments kept", "<!-- keep me -->", "<!-- keep me -->"},
		{"no digits", "<!-- react-empty: n -->", "<!-- react-empty: n -->"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := Sanitize(got); again != got {
				t.Errorf("Sanitize not idempotent: %q -> %q", got, again)
			}
		})
	}
}
