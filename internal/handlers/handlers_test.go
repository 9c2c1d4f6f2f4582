package handlers

import (
	"strings"
	"testing"
)

func TestAttachmentDisposition(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		want     string
	}{
		{"plain name", "report.pdf", `attachment; filename=report.pdf`},
		{"name with spaces", "lab results.pdf", `attachment; filename="lab results.pdf"`},
		{"name with quote", `x"ray.png`, `attachment; filename="x\"ray.png"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := attachmentDisposition(tt.fileName); got != tt.want {
				t.Errorf("attachmentDisposition(%q) = %q, want %q", tt.fileName, got, tt.want)
			}
		})
	}
}

func TestAttachmentDispositionStripsHeaderBreaks(t *testing.T) {
	got := attachmentDisposition("evil.pdf\r\nSet-Cookie: session=1")
	if strings.ContainsAny(got, "\r\n") {
		t.Errorf("attachmentDisposition produced raw header breaks: %q", got)
	}
}
