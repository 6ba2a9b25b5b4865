package main

import (
	"context"
	"strings"
	"testing"
	"time"
)

// mockService implements taskService and counts calls, so tests can assert
// that invalid input never reaches the network.
type mockService struct {
	createCalls int
	getCalls    int

	createResp *CreateTaskResponse
	task       *Task
	err        error

	lastView View
}

func (m *mockService) CreateTask(ctx context.Context, task *Task) (*CreateTaskResponse, error) {
	m.createCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.createResp, nil
}

func (m *mockService) GetTask(ctx context.Context, taskID string, view View) (*Task, error) {
	m.getCalls++
	m.lastView = view
	if m.err != nil {
		return nil, m.err
	}
	return m.task, nil
}

func testHandlers(m *mockService) *toolHandlers {
	return newToolHandlers(m, Config{PollInterval: 5})
}

func rfc3339Ago(d time.Duration) string {
	return time.Now().UTC().Add(-d).Format(time.RFC3339)
}

// ---------------------------------------------------------------------------
// create_tes_task
// ---------------------------------------------------------------------------

func TestCreateToolRejectsExecutorlessTask(t *testing.T) {
	m := &mockService{}
	_, _, err := testHandlers(m).createTask(context.Background(), nil, CreateTaskArgs{
		Task: Task{Name: "no-exec"},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if m.createCalls != 0 {
		t.Fatalf("executor-less task must not reach the client: %d calls", m.createCalls)
	}
}

func TestCreateToolRejectsBadPaths(t *testing.T) {
	m := &mockService{}
	_, _, err := testHandlers(m).createTask(context.Background(), nil, CreateTaskArgs{
		Task: Task{
			Executors: []Executor{{Image: "ubuntu", Command: []string{"echo"}}},
			Outputs:   []Output{{URL: "s3://b/o", Path: "relative/path"}},
		},
	})
	if err == nil {
		t.Fatal("expected validation error for relative output path")
	}
	if m.createCalls != 0 {
		t.Fatal("invalid task must not reach the client")
	}
}

func TestCreateToolSuccess(t *testing.T) {
	m := &mockService{createResp: &CreateTaskResponse{ID: "job-7"}}
	_, out, err := testHandlers(m).createTask(context.Background(), nil, CreateTaskArgs{
		Task: Task{
			Name:      "aln",
			Executors: []Executor{{Image: "ubuntu", Command: []string{"echo"}}},
		},
	})
	if err != nil {
		t.Fatalf("createTask: %v", err)
	}
	if out.ID != "job-7" {
		t.Fatalf("id: got %q", out.ID)
	}
	if !strings.Contains(out.Message, "wait_for_task_completion") {
		t.Fatalf("message missing guidance: %q", out.Message)
	}
	if m.createCalls != 1 {
		t.Fatalf("create calls: %d", m.createCalls)
	}
}

func TestCreateToolWrapsClientErrors(t *testing.T) {
	m := &mockService{err: &AuthError{StatusCode: 401}}
	_, _, err := testHandlers(m).createTask(context.Background(), nil, CreateTaskArgs{
		Task: Task{Executors: []Executor{{Image: "ubuntu", Command: []string{"echo"}}}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "TES_TOKEN") {
		t.Fatalf("auth failure should mention TES_TOKEN: %v", err)
	}
}

// ---------------------------------------------------------------------------
// get_tes_task
// ---------------------------------------------------------------------------

func TestGetToolRejectsEmptyID(t *testing.T) {
	m := &mockService{}
	_, _, err := testHandlers(m).getTask(context.Background(), nil, GetTaskArgs{TaskID: "   "})
	if err == nil {
		t.Fatal("expected error for blank task id")
	}
	if m.getCalls != 0 {
		t.Fatal("blank id must not reach the client")
	}
}

func TestGetToolRejectsInvalidView(t *testing.T) {
	m := &mockService{}
	_, _, err := testHandlers(m).getTask(context.Background(), nil, GetTaskArgs{
		TaskID: "job-1",
		View:   "bogus",
	})
	if err == nil {
		t.Fatal("expected error for invalid view")
	}
	if m.getCalls != 0 {
		t.Fatalf("invalid view must not reach the client: %d calls", m.getCalls)
	}
}

func TestGetToolDefaultsToBasic(t *testing.T) {
	m := &mockService{task: &Task{ID: "job-1", State: StateRunning, Name: "aln"}}
	_, out, err := testHandlers(m).getTask(context.Background(), nil, GetTaskArgs{TaskID: "job-1"})
	if err != nil {
		t.Fatalf("getTask: %v", err)
	}
	if m.lastView != ViewBasic {
		t.Fatalf("view: got %q, want BASIC", m.lastView)
	}
	if out.ViewUsed != ViewBasic {
		t.Fatalf("view_used: got %q", out.ViewUsed)
	}
	if out.Task == nil || out.Minimal != nil {
		t.Fatal("BASIC view should populate Task, not Minimal")
	}
}

func TestGetToolNormalizesView(t *testing.T) {
	m := &mockService{task: &Task{ID: "job-1", State: StateComplete}}
	_, out, err := testHandlers(m).getTask(context.Background(), nil, GetTaskArgs{
		TaskID: " job-1 ",
		View:   "minimal",
	})
	if err != nil {
		t.Fatalf("getTask: %v", err)
	}
	if m.lastView != ViewMinimal {
		t.Fatalf("view: got %q, want MINIMAL", m.lastView)
	}
	if out.Minimal == nil || out.Task != nil {
		t.Fatal("MINIMAL view should populate Minimal, not Task")
	}
	if out.Minimal.ID != "job-1" || out.Minimal.State != StateComplete {
		t.Fatalf("minimal: %+v", out.Minimal)
	}
}

func TestGetToolGuidanceByState(t *testing.T) {
	cases := []struct {
		state State
		want  string
	}{
		{StateComplete, "view='FULL'"},
		{StateExecutorError, "error logs"},
		{StateCanceled, "canceled"},
		{StateRunning, "wait_for_task_completion"},
		{StatePaused, "paused"},
		{State("NEW_STATE"), "wait_for_task_completion"},
	}
	for _, c := range cases {
		m := &mockService{task: &Task{ID: "job-1", State: c.state, Name: "aln"}}
		_, out, err := testHandlers(m).getTask(context.Background(), nil, GetTaskArgs{TaskID: "job-1"})
		if err != nil {
			t.Fatalf("%s: %v", c.state, err)
		}
		if !strings.Contains(out.Message, c.want) {
			t.Fatalf("%s: message %q missing %q", c.state, out.Message, c.want)
		}
	}
}

func TestGetToolNotFoundMessage(t *testing.T) {
	m := &mockService{err: &NotFoundError{TaskID: "ghost"}}
	_, _, err := testHandlers(m).getTask(context.Background(), nil, GetTaskArgs{TaskID: "ghost"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "ghost") || !strings.Contains(err.Error(), "Verify the task ID") {
		t.Fatalf("not-found message: %v", err)
	}
}

// ---------------------------------------------------------------------------
// wait_for_task_completion
// ---------------------------------------------------------------------------

func TestWaitToolRejectsEmptyID(t *testing.T) {
	m := &mockService{}
	_, _, err := testHandlers(m).waitForTask(context.Background(), nil, WaitArgs{TaskID: ""})
	if err == nil {
		t.Fatal("expected error for empty task id")
	}
	if m.getCalls != 0 {
		t.Fatal("empty id must not reach the client")
	}
}

func TestWaitToolFetchesMinimalView(t *testing.T) {
	m := &mockService{task: &Task{
		ID:           "job-1",
		State:        StateRunning,
		Name:         "aln",
		CreationTime: rfc3339Ago(2 * time.Minute),
	}}
	_, report, err := testHandlers(m).waitForTask(context.Background(), nil, WaitArgs{TaskID: "job-1"})
	if err != nil {
		t.Fatalf("waitForTask: %v", err)
	}
	if m.lastView != ViewMinimal {
		t.Fatalf("wait should fetch MINIMAL view, got %q", m.lastView)
	}
	if report.Status != StatusStillRunning {
		t.Fatalf("status: got %q", report.Status)
	}
	if !report.ShouldContinueWaiting {
		t.Fatal("running task should continue waiting")
	}
	if report.EstimatedWaitTime != 5 {
		t.Fatalf("interval: got %d, want base 5", report.EstimatedWaitTime)
	}
}

func TestWaitToolCoercesMaxWait(t *testing.T) {
	// a task 11 minutes old with max_wait <= 0: the default of 10 applies,
	// so the classification is still_running_timeout
	m := &mockService{task: &Task{
		ID:           "job-1",
		State:        StateRunning,
		Name:         "aln",
		CreationTime: rfc3339Ago(11 * time.Minute),
	}}
	_, report, err := testHandlers(m).waitForTask(context.Background(), nil, WaitArgs{
		TaskID:         "job-1",
		MaxWaitMinutes: -3,
	})
	if err != nil {
		t.Fatalf("waitForTask: %v", err)
	}
	if report.Status != StatusStillRunningTimeout {
		t.Fatalf("status: got %q, want still_running_timeout", report.Status)
	}
	if !strings.Contains(report.Message, "10 min") {
		t.Fatalf("message should use default threshold: %q", report.Message)
	}
}

func TestWaitToolCompletedTask(t *testing.T) {
	m := &mockService{task: &Task{
		ID:           "job-1",
		State:        StateComplete,
		Name:         "aln",
		CreationTime: rfc3339Ago(3 * time.Minute),
	}}
	_, report, err := testHandlers(m).waitForTask(context.Background(), nil, WaitArgs{TaskID: "job-1"})
	if err != nil {
		t.Fatalf("waitForTask: %v", err)
	}
	if report.Status != StatusCompletedSuccess {
		t.Fatalf("status: got %q", report.Status)
	}
	if report.ShouldContinueWaiting {
		t.Fatal("completed task should not continue waiting")
	}
	if report.NextAction != "get_tes_task" {
		t.Fatalf("next action: got %q", report.NextAction)
	}
}

func TestWaitToolMissingStateAndTimestamp(t *testing.T) {
	// a degenerate MINIMAL response: no state, no creation time. Must degrade
	// to unknown_state with zero duration, never error.
	m := &mockService{task: &Task{ID: "job-1"}}
	_, report, err := testHandlers(m).waitForTask(context.Background(), nil, WaitArgs{TaskID: "job-1"})
	if err != nil {
		t.Fatalf("waitForTask: %v", err)
	}
	if report.Status != StatusUnknownState {
		t.Fatalf("status: got %q, want unknown_state", report.Status)
	}
	if report.TaskDurationMinutes != 0 {
		t.Fatalf("duration: got %v, want 0", report.TaskDurationMinutes)
	}
	if report.TaskName != "Unnamed Task" {
		t.Fatalf("name: got %q", report.TaskName)
	}
}

func TestWaitToolWrapsErrors(t *testing.T) {
	m := &mockService{err: &ServerError{StatusCode: 503, Body: "overloaded"}}
	_, _, err := testHandlers(m).waitForTask(context.Background(), nil, WaitArgs{TaskID: "job-1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "job-1") {
		t.Fatalf("error should carry the task id: %v", err)
	}
}
