// get_task.go implements the get_tes_task tool: fetch a task at the requested
// detail level and attach a narrative status summary plus next-step guidance.
//
// The guidance here maps the raw TES state directly to text. It overlaps in
// spirit with the wait tool's classification but deliberately does not go
// through SimplifiedStatus — this is a one-off snapshot, not a polling
// decision.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"
)

// GetTaskArgs is the input for the get_tes_task tool.
type GetTaskArgs struct {
	TaskID string `json:"task_id" jsonschema:"The unique task identifier returned when the task was created"`
	View   string `json:"view,omitempty" jsonschema:"Level of detail: MINIMAL (id and state only), BASIC (default), or FULL (includes logs)"`
}

// GetTaskOutput carries the task data plus the synthesized guidance. Exactly
// one of Task or Minimal is set, depending on the view used.
type GetTaskOutput struct {
	Task     *Task        `json:"task,omitempty"`
	Minimal  *MinimalTask `json:"minimal,omitempty"`
	ViewUsed View         `json:"view_used"`
	Message  string       `json:"message"`
}

const getTaskDescription = `Retrieve detailed information about a TES (Task Execution Service) task.

This tool fetches comprehensive information about a previously created computational
task, including its current execution status, resource usage, input/output files, and
execution logs.

**When to use this tool:**
- Check the current status of a running task
- Retrieve execution logs after task completion or failure
- Debug failed tasks by examining error logs
- Verify task configuration and parameters

**Parameters:**
- 'task_id' (required): The unique task identifier returned when the task was created
- 'view' (optional): Level of detail to retrieve:
  - "MINIMAL": Basic info only (id, state) - fastest
  - "BASIC": Standard details including inputs, outputs, resources - default
  - "FULL": Complete information including detailed execution logs

**Returns:** Task information with status summary and contextual guidance for next steps.`

func (h *toolHandlers) getTask(ctx context.Context, req *mcp.CallToolRequest, args GetTaskArgs) (*mcp.CallToolResult, GetTaskOutput, error) {
	taskID := strings.TrimSpace(args.TaskID)
	if taskID == "" {
		return nil, GetTaskOutput{}, fmt.Errorf("task ID is required and cannot be empty")
	}

	// Invalid views fail here, before any network call.
	view, err := ParseView(args.View)
	if err != nil {
		return nil, GetTaskOutput{}, fmt.Errorf(
			"%w. Use MINIMAL for quick status checks, BASIC for standard info, or FULL for complete details including logs", err)
	}

	log.WithFields(log.Fields{"task_id": taskID, "view": view}).Info("retrieving task")

	task, err := h.tes.GetTask(ctx, taskID, view)
	if err != nil {
		return nil, GetTaskOutput{}, wrapToolError("retrieve task", taskID, err)
	}

	name := task.Name
	if name == "" {
		name = "Unnamed Task"
	}
	message := statusSummary(task.State, name, task.CreationTime) + "\n" + nextSteps(task.State, view)

	out := GetTaskOutput{ViewUsed: view, Message: message}
	if view == ViewMinimal {
		out.Minimal = &MinimalTask{ID: task.ID, State: task.State}
	} else {
		out.Task = task
	}
	return nil, out, nil
}

// statusSummary renders a one-line human-readable description of the state.
func statusSummary(state State, name, creationTime string) string {
	descriptions := map[State]string{
		StateUnknown:       "Status is unknown or not yet determined",
		StateQueued:        "Task is queued and waiting to start execution",
		StateInitializing:  "Task is being initialized for execution",
		StateRunning:       "Task is currently running",
		StatePaused:        "Task execution has been paused",
		StateComplete:      "Task completed successfully",
		StateExecutorError: "Task failed due to an error in the executor",
		StateSystemError:   "Task failed due to a system error",
		StateCanceled:      "Task was canceled",
		StatePreempted:     "Task was preempted by the system",
		StateCanceling:     "Task is being canceled",
	}

	desc, ok := descriptions[state]
	if !ok {
		desc = fmt.Sprintf("Unknown state: %s", state)
	}
	if creationTime == "" {
		creationTime = "unknown"
	}
	return fmt.Sprintf("Task '%s' (created %s): %s", name, creationTime, desc)
}

// nextSteps produces guidance text based on the task's state and the view the
// caller already has.
func nextSteps(state State, currentView View) string {
	switch state {
	case StateComplete:
		if currentView != ViewFull {
			return "Task completed successfully! Use get_tes_task with view='FULL' to see execution logs and output file details."
		}
		return "Task completed successfully. Check the 'outputs' and 'logs' sections for results and execution details."

	case StateExecutorError, StateSystemError:
		if currentView != ViewFull {
			return fmt.Sprintf("Task failed with %s. Use get_tes_task with view='FULL' to see detailed error logs and determine the cause.", state)
		}
		return "Task failed. Review the 'logs' section for error details. You may need to modify the task specification and retry."

	case StateCanceled:
		return "Task was canceled. Check with the user if this was intentional, or if the task should be recreated."

	case StateRunning, StateQueued, StateInitializing:
		return fmt.Sprintf("Task is still %s. Use wait_for_task_completion to monitor progress, or check again later.",
			strings.ToLower(string(state)))

	case StatePaused:
		return "Task is paused. You may need to resume it or check with the TES service administrator."
	}
	return fmt.Sprintf("Task is in %s state. Use wait_for_task_completion to monitor for changes.", state)
}
