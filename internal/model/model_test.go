package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFromCode(t *testing.T) {
	tests := []struct {
		code int
		want TaskStatus
	}{
		{1, StatusWaiting},
		{2, StatusDownloading},
		{3, StatusPaused},
		{5, StatusFinished},
		{8, StatusSeeding},
		{101, StatusError},
		{113, StatusError},
		{7, StatusUnknown},
		{0, StatusUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFromCode(tt.code), "code %d", tt.code)
	}
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusSeeding, ParseStatus(" Seeding "))
	assert.Equal(t, StatusHashChecking, ParseStatus("hash_checking"))
	assert.Equal(t, StatusUnknown, ParseStatus("bogus"))
	assert.Equal(t, StatusUnknown, ParseStatus(""))
}

func TestTask_Progress(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want float64
	}{
		{"half", Task{Size: 200, Downloaded: 100, Status: StatusDownloading}, 0.5},
		{"unknown size", Task{Size: 0, Downloaded: 100, Status: StatusDownloading}, 0},
		{"overshoot clamps", Task{Size: 100, Downloaded: 150, Status: StatusDownloading}, 1},
		{"seeding is complete", Task{Size: 100, Downloaded: 10, Status: StatusSeeding}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.task.Progress(), 0.0001)
		})
	}
}

func TestFirstDestination(t *testing.T) {
	tasks := []Task{
		{ID: "a"},
		{ID: "b", Destination: "  "},
		{ID: "c", Destination: "/volume1/downloads"},
		{ID: "d", Destination: "/volume1/other"},
	}

	assert.Equal(t, "/volume1/downloads", FirstDestination(tasks))
	assert.Equal(t, "", FirstDestination(nil))
}

func TestSessionRecord_HasToken(t *testing.T) {
	var nilRec *SessionRecord
	assert.False(t, nilRec.HasToken())
	assert.False(t, (&SessionRecord{}).HasToken())
	assert.True(t, (&SessionRecord{SessionToken: "sid"}).HasToken())
}

func TestIdentity_Complete(t *testing.T) {
	assert.True(t, Identity{Account: "admin", Secret: "pw"}.Complete())
	assert.False(t, Identity{Account: "admin"}.Complete())
	assert.False(t, Identity{Secret: "pw"}.Complete())
	assert.False(t, Identity{Account: "  ", Secret: "pw"}.Complete())
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KiB", FormatBytes(1536))
	assert.Equal(t, "1.0 GiB", FormatBytes(1<<30))
}
