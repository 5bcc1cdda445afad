package model

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus is the remote status code of a download task.
type TaskStatus string

// Known task statuses reported by Download Station.
const (
	StatusWaiting         TaskStatus = "waiting"
	StatusDownloading     TaskStatus = "downloading"
	StatusPaused          TaskStatus = "paused"
	StatusFinishing       TaskStatus = "finishing"
	StatusFinished        TaskStatus = "finished"
	StatusHashChecking    TaskStatus = "hash_checking"
	StatusSeeding         TaskStatus = "seeding"
	StatusFilehostWaiting TaskStatus = "filehost_waiting"
	StatusExtracting      TaskStatus = "extracting"
	StatusError           TaskStatus = "error"
	StatusUnknown         TaskStatus = "unknown"
)

// numericStatuses maps the integer status codes used by the v2 task API.
var numericStatuses = map[int]TaskStatus{
	1:   StatusWaiting,
	2:   StatusDownloading,
	3:   StatusPaused,
	4:   StatusFinishing,
	5:   StatusFinished,
	6:   StatusHashChecking,
	8:   StatusSeeding,
	9:   StatusFilehostWaiting,
	10:  StatusExtracting,
	101: StatusError,
}

// StatusFromCode converts a numeric status code to a TaskStatus.
// Codes above 100 are all error variants.
func StatusFromCode(code int) TaskStatus {
	if s, ok := numericStatuses[code]; ok {
		return s
	}
	if code > 100 {
		return StatusError
	}
	return StatusUnknown
}

// ParseStatus converts a textual status to a TaskStatus.
func ParseStatus(s string) TaskStatus {
	switch st := TaskStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusWaiting, StatusDownloading, StatusPaused, StatusFinishing,
		StatusFinished, StatusHashChecking, StatusSeeding,
		StatusFilehostWaiting, StatusExtracting, StatusError:
		return st
	}
	return StatusUnknown
}

// IsCompleted reports whether the task has finished downloading.
// Seeding tasks count as completed.
func (s TaskStatus) IsCompleted() bool {
	return s == StatusFinished || s == StatusSeeding
}

// Label returns a display-friendly label for the status.
func (s TaskStatus) Label() string {
	switch s {
	case StatusHashChecking:
		return "checking"
	case StatusFilehostWaiting:
		return "waiting (host)"
	case "":
		return string(StatusUnknown)
	}
	return string(s)
}

// Task is a single remote download task.
//
// Task values are fully replaced on each poll; nothing merges two
// snapshots together.
type Task struct {
	// ID is the remote task identifier, e.g. "dbid_123".
	ID string

	// Title is the task name shown by the service.
	Title string

	// Type is the transfer kind (bt, http, ftp, nzb, ...).
	Type string

	// Username is the owner account of the task.
	Username string

	// Size is the total size in bytes.
	Size int64

	// Status is the current remote status.
	Status TaskStatus

	// Downloaded is the number of bytes transferred so far.
	Downloaded int64

	// Uploaded is the number of bytes seeded so far.
	Uploaded int64

	// SpeedDownload and SpeedUpload are in bytes per second.
	SpeedDownload int64
	SpeedUpload   int64

	// Destination is the server-side folder of the task.
	// Empty when the service did not report one.
	Destination string

	// CreatedAt is when the task was created, if known.
	CreatedAt time.Time
}

// Progress returns the completed fraction in [0, 1].
func (t Task) Progress() float64 {
	if t.Status.IsCompleted() {
		return 1
	}
	if t.Size <= 0 {
		return 0
	}
	p := float64(t.Downloaded) / float64(t.Size)
	if p > 1 {
		return 1
	}
	return p
}

// FirstDestination returns the first non-empty destination in tasks,
// or "" if none of them reports one.
func FirstDestination(tasks []Task) string {
	for _, t := range tasks {
		if d := strings.TrimSpace(t.Destination); d != "" {
			return d
		}
	}
	return ""
}

// FormatBytes renders n with binary units, e.g. "1.5 KiB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
