// Package status defines the user-visible status channel shared by the
// dstask components.
//
// Components report through a Sink instead of printing, the same way the
// download manager reports progress:
//
//	sink := func(e status.Event) { fmt.Println(e.Message) }
//	sink.Warnf("credential provider: %v", err)
package status

import "fmt"

// Level indicates the severity/type of a status message.
type Level int

const (
	LevelInfo Level = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// String returns the lowercase level name.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelVerbose:
		return "verbose"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Event is one status line.
type Event struct {
	Message string
	Level   Level
}

// Sink receives status events. A nil Sink discards them.
type Sink func(Event)

// Emit sends an event with the given level.
func (s Sink) Emit(level Level, format string, args ...any) {
	if s == nil {
		return
	}
	s(Event{Message: fmt.Sprintf(format, args...), Level: level})
}

func (s Sink) Infof(format string, args ...any)    { s.Emit(LevelInfo, format, args...) }
func (s Sink) Verbosef(format string, args ...any) { s.Emit(LevelVerbose, format, args...) }
func (s Sink) Warnf(format string, args ...any)    { s.Emit(LevelWarning, format, args...) }
func (s Sink) Errorf(format string, args ...any)   { s.Emit(LevelError, format, args...) }
func (s Sink) Successf(format string, args ...any) { s.Emit(LevelSuccess, format, args...) }
