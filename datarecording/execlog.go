package datarecording

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExecTable is the table that ExecRecorder writes to.
const ExecTable = "exec_info"

const timeLayout = "2006-01-02 15:04:05"

// ExecInfo is one property of a run.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecRecorder records how and when the program ran.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
	now      func() time.Time
}

// NewExecRecorder creates the exec table on the recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	recorder.CreateTable(ExecTable, ExecInfo{})

	return &ExecRecorder{
		recorder: recorder,
		now:      time.Now,
	}
}

// Add queues a property.
func (e *ExecRecorder) Add(property, value string) {
	e.entries = append(e.entries, ExecInfo{Property: property, Value: value})
}

// Start queues the start time, the command line, and the executable path.
func (e *ExecRecorder) Start() {
	e.Add("Start Time", e.now().Format(timeLayout))
	e.Add("Command", strings.Join(os.Args, " "))

	if ex, err := os.Executable(); err == nil {
		e.Add("Path", filepath.Dir(ex))
	}
}

// Finish adds the end time and writes every queued property.
func (e *ExecRecorder) Finish() {
	e.Add("End Time", e.now().Format(timeLayout))

	for _, entry := range e.entries {
		e.recorder.InsertData(ExecTable, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}
