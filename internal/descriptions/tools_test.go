package descriptions

import (
	"strings"
	"testing"
)

func TestGetToolDescription(t *testing.T) {
	for _, name := range GetAllToolNames() {
		desc := GetToolDescription(name)
		if desc == "" || strings.HasPrefix(desc, "Tool description not available") {
			t.Errorf("GetToolDescription(%q) has no description", name)
		}
	}

	if got := GetToolDescription("pdf_read_file"); got != "Tool description not available" {
		t.Errorf("GetToolDescription(unknown) = %q", got)
	}
}

func TestGetAllToolNames(t *testing.T) {
	want := []string{ToolExport, ToolExtractDirectory, ToolExtractFile, ToolServerInfo}
	got := GetAllToolNames()
	if len(got) != len(want) {
		t.Fatalf("GetAllToolNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GetAllToolNames()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
