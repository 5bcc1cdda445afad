package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/handiism/dstask/internal/model"
	"github.com/handiism/dstask/internal/status"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// printer returns a status sink that writes one prefixed line per event.
// Verbose events are dropped unless verbose is set.
func printer(w io.Writer, verbose bool) status.Sink {
	return func(e status.Event) {
		if e.Level == status.LevelVerbose && !verbose {
			return
		}

		prefix := ""
		switch e.Level {
		case status.LevelError:
			prefix = "✗ "
		case status.LevelWarning:
			prefix = "! "
		case status.LevelSuccess:
			prefix = "✓ "
		case status.LevelInfo:
			prefix = "› "
		default:
			prefix = "  "
		}

		fmt.Fprintln(w, prefix+e.Message)
	}
}

func printTasks(w io.Writer, tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("ID", "TITLE", "SIZE", "DONE", "STATUS", "DESTINATION")

	for _, task := range tasks {
		t.Row(
			task.ID,
			task.Title,
			model.FormatBytes(task.Size),
			fmt.Sprintf("%.1f%%", task.Progress()*100),
			task.Status.Label(),
			task.Destination,
		)
	}
	fmt.Fprintln(w, t.Render())
}

func printTask(w io.Writer, t model.Task) {
	var b strings.Builder
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%-13s %s\n", name+":", value)
		}
	}

	field("ID", t.ID)
	field("Title", t.Title)
	field("Type", t.Type)
	field("Owner", t.Username)
	field("Status", t.Status.Label())
	field("Size", model.FormatBytes(t.Size))
	field("Downloaded", fmt.Sprintf("%s (%.1f%%)", model.FormatBytes(t.Downloaded), t.Progress()*100))
	field("Uploaded", model.FormatBytes(t.Uploaded))
	field("Speed", fmt.Sprintf("↓ %s/s  ↑ %s/s", model.FormatBytes(t.SpeedDownload), model.FormatBytes(t.SpeedUpload)))
	field("Destination", t.Destination)
	if !t.CreatedAt.IsZero() {
		field("Created", t.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}

	fmt.Fprint(w, b.String())
}
