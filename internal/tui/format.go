package tui

import (
	"fmt"

	"github.com/charmbracelet/x/ansi"

	"github.com/handiism/dstask/internal/model"
)

func humanSpeed(n int64) string {
	if n <= 0 {
		return "-"
	}
	return model.FormatBytes(n) + "/s"
}

func truncate(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}

// taskRow renders one task for the table, in column order.
func taskRow(t model.Task) []string {
	return []string{
		truncate(t.Title, 40),
		model.FormatBytes(t.Size),
		fmt.Sprintf("%5.1f%%", t.Progress()*100),
		t.Status.Label(),
		humanSpeed(t.SpeedDownload),
		humanSpeed(t.SpeedUpload),
		truncate(t.Destination, 24),
	}
}
