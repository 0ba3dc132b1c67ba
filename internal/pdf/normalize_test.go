package pdf

import (
	"testing"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"arabic-indic digits", "التاريخ ١٢/٠٤/٢٠٢٥", "التاريخ 12/04/2025"},
		{"extended arabic-indic digits", "۱۵,۲۳۰.۰۰", "15,230.00"},
		{"presentation forms fold to base letters", "\uFEE3\uFEA4\uFEE4\uFEAA", "\u0645\u062D\u0645\u062F"},
		{"bidi marks removed", "\u200fSU-0150109\u200e", "SU-0150109"},
		{"no-break space", "Ahmed\u00a0Ali", "Ahmed Ali"},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"full-width digits", "ＳＵ－０１５", "SU-015"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.input); got != tt.want {
				t.Errorf("NormalizeText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeOCR(t *testing.T) {
	input := "SU-0150109\t\tPayTO-0019990  \r\n-----\r\n\r\n\r\n\r\nDate   12/04/2025   \n"
	want := "SU-0150109 PayTO-0019990\n\nDate 12/04/2025"

	if got := NormalizeOCR(input); got != want {
		t.Errorf("NormalizeOCR() = %q, want %q", got, want)
	}
	if got := NormalizeOCR(""); got != "" {
		t.Errorf("NormalizeOCR() = %q, want empty", got)
	}
}
