package dto

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/handiism/dstask/internal/model"
)

// JSONStatus accepts both the numeric (v2) and textual (v1) status forms.
type JSONStatus struct {
	model.TaskStatus
}

// UnmarshalJSON parses 2 or "downloading".
func (s *JSONStatus) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		s.TaskStatus = model.StatusFromCode(n)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if n, err := strconv.Atoi(str); err == nil {
		s.TaskStatus = model.StatusFromCode(n)
		return nil
	}
	s.TaskStatus = model.ParseStatus(str)
	return nil
}

// JSONTaskList is the data of SYNO.DownloadStation2.Task list.
type JSONTaskList struct {
	Offset int        `json:"offset"`
	Total  int        `json:"total"`
	Tasks  []JSONTask `json:"task"`
}

// JSONTaskGet is the data of SYNO.DownloadStation2.Task get.
type JSONTaskGet struct {
	Tasks []JSONTask `json:"task"`
}

// JSONTask is one task entry.
type JSONTask struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Type       string              `json:"type"`
	Username   string              `json:"username"`
	Size       int64               `json:"size"`
	Status     JSONStatus          `json:"status"`
	Additional *JSONTaskAdditional `json:"additional"`
}

// JSONTaskAdditional holds the optional detail and transfer blocks.
type JSONTaskAdditional struct {
	Detail   *JSONTaskDetail   `json:"detail"`
	Transfer *JSONTaskTransfer `json:"transfer"`
}

// JSONTaskDetail describes where and when a task was created.
type JSONTaskDetail struct {
	Destination string `json:"destination"`
	URI         string `json:"uri"`
	CreateTime  int64  `json:"create_time"`
}

// JSONTaskTransfer holds transfer counters.
type JSONTaskTransfer struct {
	SizeDownloaded int64 `json:"size_downloaded"`
	SizeUploaded   int64 `json:"size_uploaded"`
	SpeedDownload  int64 `json:"speed_download"`
	SpeedUpload    int64 `json:"speed_upload"`
}

// ToTask converts JSONTask to a model.Task.
func (jt *JSONTask) ToTask() model.Task {
	task := model.Task{
		ID:       jt.ID,
		Title:    jt.Title,
		Type:     jt.Type,
		Username: jt.Username,
		Size:     jt.Size,
		Status:   jt.Status.TaskStatus,
	}
	if task.Status == "" {
		task.Status = model.StatusUnknown
	}

	if jt.Additional == nil {
		return task
	}
	if d := jt.Additional.Detail; d != nil {
		task.Destination = d.Destination
		if d.CreateTime > 0 {
			task.CreatedAt = time.Unix(d.CreateTime, 0)
		}
	}
	if tr := jt.Additional.Transfer; tr != nil {
		task.Downloaded = tr.SizeDownloaded
		task.Uploaded = tr.SizeUploaded
		task.SpeedDownload = tr.SpeedDownload
		task.SpeedUpload = tr.SpeedUpload
	}
	return task
}

// ToTasks converts a slice of JSONTask.
func ToTasks(in []JSONTask) []model.Task {
	tasks := make([]model.Task, 0, len(in))
	for i := range in {
		tasks = append(tasks, in[i].ToTask())
	}
	return tasks
}
