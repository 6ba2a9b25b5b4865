// tes_types.go defines the GA4GH TES wire data model: the task resource and
// its nested pieces, plus the state and view enumerations.
//
// States and views travel as plain strings on the wire. They are modeled as
// string types with a closed constant set and an explicit unrecognized
// fallback, so a TES server that introduces a new state never breaks parsing —
// the value round-trips untouched and classifies as unknown.
package main

import (
	"fmt"
	"path"
	"strings"
)

// State is the remote task state reported by the TES server.
type State string

const (
	StateUnknown       State = "UNKNOWN"
	StateQueued        State = "QUEUED"
	StateInitializing  State = "INITIALIZING"
	StateRunning       State = "RUNNING"
	StatePaused        State = "PAUSED"
	StateComplete      State = "COMPLETE"
	StateExecutorError State = "EXECUTOR_ERROR"
	StateSystemError   State = "SYSTEM_ERROR"
	StateCanceled      State = "CANCELED"
	StatePreempted     State = "PREEMPTED"
	StateCanceling     State = "CANCELING"
)

// Terminal reports whether the task can no longer change state.
func (s State) Terminal() bool {
	switch s {
	case StateComplete, StateExecutorError, StateSystemError, StateCanceled:
		return true
	}
	return false
}

// Known reports whether s is one of the states defined by the TES spec.
// Unknown values are preserved, not rejected.
func (s State) Known() bool {
	switch s {
	case StateUnknown, StateQueued, StateInitializing, StateRunning,
		StatePaused, StateComplete, StateExecutorError, StateSystemError,
		StateCanceled, StatePreempted, StateCanceling:
		return true
	}
	return false
}

// View selects how much of a task the server returns.
type View string

const (
	ViewMinimal View = "MINIMAL" // id and state only
	ViewBasic   View = "BASIC"   // adds inputs, outputs, resources
	ViewFull    View = "FULL"    // adds logs and system logs
)

// ParseView normalizes a caller-supplied view string (case-insensitive,
// surrounding whitespace ignored, empty defaults to BASIC) and rejects
// anything outside the three defined views.
func ParseView(s string) (View, error) {
	v := View(strings.ToUpper(strings.TrimSpace(s)))
	switch v {
	case "":
		return ViewBasic, nil
	case ViewMinimal, ViewBasic, ViewFull:
		return v, nil
	}
	return "", fmt.Errorf("invalid view %q: must be one of MINIMAL, BASIC, FULL", s)
}

// FileType marks an input or output as a single file or a directory.
type FileType string

const (
	FileTypeFile      FileType = "FILE"
	FileTypeDirectory FileType = "DIRECTORY"
)

// Executor is one containerized command in a task's sequential pipeline.
type Executor struct {
	Image       string            `json:"image"`
	Command     []string          `json:"command"`
	Workdir     string            `json:"workdir,omitempty"`
	Stdin       string            `json:"stdin,omitempty"`
	Stdout      string            `json:"stdout,omitempty"`
	Stderr      string            `json:"stderr,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	IgnoreError bool              `json:"ignore_error,omitempty"`
}

// Input describes a file downloaded and mounted into the executor container.
// Either URL or Content must be set; if Content is set, URL is ignored.
type Input struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	Path        string   `json:"path"`
	Type        FileType `json:"type,omitempty"`
	Content     string   `json:"content,omitempty"`
	Streamable  bool     `json:"streamable,omitempty"`
}

// Output describes a file uploaded from the container to long-term storage
// after the task completes.
type Output struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url"`
	Path        string   `json:"path"`
	PathPrefix  string   `json:"path_prefix,omitempty"`
	Type        FileType `json:"type,omitempty"`
}

// Resources describes the compute requested by a task.
type Resources struct {
	CPUCores                int               `json:"cpu_cores,omitempty"`
	Preemptible             bool              `json:"preemptible,omitempty"`
	RAMGb                   float64           `json:"ram_gb,omitempty"`
	DiskGb                  float64           `json:"disk_gb,omitempty"`
	Zones                   []string          `json:"zones,omitempty"`
	BackendParameters       map[string]string `json:"backend_parameters,omitempty"`
	BackendParametersStrict bool              `json:"backend_parameters_strict,omitempty"`
}

// ExecutorLog holds logging information for a single executor run.
type ExecutorLog struct {
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Stdout    string `json:"stdout,omitempty"`
	Stderr    string `json:"stderr,omitempty"`
	ExitCode  int    `json:"exit_code"`
}

// OutputFileLog describes one uploaded output file. SizeBytes is a string on
// the wire because JSON cannot represent int64 exactly.
type OutputFileLog struct {
	URL       string `json:"url"`
	Path      string `json:"path"`
	SizeBytes string `json:"size_bytes"`
}

// TaskLog holds logging information for one execution attempt of a task.
// Normally a task has one entry; a retried task appends another.
type TaskLog struct {
	Logs       []ExecutorLog     `json:"logs"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	StartTime  string            `json:"start_time,omitempty"`
	EndTime    string            `json:"end_time,omitempty"`
	Outputs    []OutputFileLog   `json:"outputs"`
	SystemLogs []string          `json:"system_logs,omitempty"`
}

// Task is the TES task resource. Snapshots are immutable once fetched — only
// the remote service mutates a task; this client just reads it.
type Task struct {
	ID           string            `json:"id,omitempty"`
	State        State             `json:"state,omitempty"`
	Name         string            `json:"name,omitempty"`
	Description  string            `json:"description,omitempty"`
	Inputs       []Input           `json:"inputs,omitempty"`
	Outputs      []Output          `json:"outputs,omitempty"`
	Resources    *Resources        `json:"resources,omitempty"`
	Executors    []Executor        `json:"executors"`
	Volumes      []string          `json:"volumes,omitempty"`
	Tags         map[string]string `json:"tags,omitempty"`
	Logs         []TaskLog         `json:"logs,omitempty"`
	CreationTime string            `json:"creation_time,omitempty"`
}

// Validate checks a task specification before submission. The server would
// reject these too, but catching them locally avoids a pointless round trip.
func (t *Task) Validate() error {
	if len(t.Executors) == 0 {
		return fmt.Errorf("task must have at least one executor")
	}
	for i, e := range t.Executors {
		if e.Image == "" {
			return fmt.Errorf("executor %d: image is required", i)
		}
		if len(e.Command) == 0 {
			return fmt.Errorf("executor %d: command is required", i)
		}
	}
	for i, in := range t.Inputs {
		if in.URL == "" && in.Content == "" {
			return fmt.Errorf("input %d: either url or content is required", i)
		}
		if err := validateContainerPath(in.Path); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}
	for i, out := range t.Outputs {
		if out.URL == "" {
			return fmt.Errorf("output %d: url is required", i)
		}
		if err := validateContainerPath(out.Path); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
	}
	return nil
}

// validateContainerPath enforces the TES path rules: absolute, and nested at
// least one level below root (a file directly at / is not allowed).
func validateContainerPath(p string) error {
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("path %q must be absolute", p)
	}
	clean := path.Clean(p)
	if strings.Count(clean, "/") < 2 {
		return fmt.Errorf("path %q must be nested at least one level below root", p)
	}
	return nil
}

// CreateTaskResponse is the body returned by POST /tasks.
type CreateTaskResponse struct {
	ID string `json:"id"`
}

// MinimalTask is the MINIMAL-view projection of a task: only the fields the
// server guarantees for that view.
type MinimalTask struct {
	ID    string `json:"id"`
	State State  `json:"state"`
}

// ServiceType identifies the GA4GH specification a service implements.
type ServiceType struct {
	Group    string `json:"group"`
	Artifact string `json:"artifact"`
	Version  string `json:"version"`
}

// Organization is the provider of a GA4GH service.
type Organization struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ServiceInfo is the body returned by GET /service-info.
type ServiceInfo struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Type              *ServiceType `json:"type,omitempty"`
	Description       string       `json:"description,omitempty"`
	Organization      Organization `json:"organization"`
	ContactURL        string       `json:"contactUrl,omitempty"`
	DocumentationURL  string       `json:"documentationUrl,omitempty"`
	CreatedAt         string       `json:"createdAt,omitempty"`
	UpdatedAt         string       `json:"updatedAt,omitempty"`
	Environment       string       `json:"environment,omitempty"`
	Version           string       `json:"version"`
	Storage           []string     `json:"storage,omitempty"`
	BackendParameters []string     `json:"tesResources_backend_parameters,omitempty"`
}
