// wait.go implements the wait_for_task_completion tool.
//
// Despite the name, this is a single-shot status check, not a blocking wait:
// one MINIMAL-view fetch, one classification, one recommendation. The caller
// re-invokes the tool at the recommended interval. Keeping it non-blocking is
// deliberate — a hidden sleep loop would change the timeout and cancellation
// semantics the calling agent relies on.
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"
)

// defaultMaxWaitMinutes is the threshold after which the wait tool recommends
// notifying the user. Applied when the caller omits or zeroes the argument.
const defaultMaxWaitMinutes = 10

// WaitArgs is the input for the wait_for_task_completion tool.
type WaitArgs struct {
	TaskID         string `json:"task_id" jsonschema:"The unique task identifier to monitor"`
	MaxWaitMinutes int    `json:"max_wait_minutes,omitempty" jsonschema:"Minutes of task age before recommending user notification (default: 10)"`
}

const waitDescription = `Monitor the progress of a TES (Task Execution Service) task and receive intelligent
guidance on next steps.

This tool provides smart task monitoring with adaptive polling intervals, timeout
handling, and contextual recommendations. It performs a single status check and
returns a full decision payload — it does not block.

**When to use this tool:**
- After creating a task to monitor its execution progress
- When you need to wait for a task to complete before proceeding
- To check if a long-running task needs user attention

**Parameters:**
- 'task_id' (required): The unique task identifier to monitor
- 'max_wait_minutes' (optional): Minutes to wait before recommending user notification (default: 10)

**Example Usage Pattern:**
1. Create task with create_tes_task
2. Use wait_for_task_completion to monitor progress
3. Follow the next_action guidance:
   - If "get_tes_task": Retrieve full results and logs
   - If "wait_for_task_completion": Continue monitoring after the recommended interval
   - If the recommendation is "notify_user": Inform user of status or delays

**Returns:** Comprehensive status with specific guidance for efficient task monitoring.`

func (h *toolHandlers) waitForTask(ctx context.Context, req *mcp.CallToolRequest, args WaitArgs) (*mcp.CallToolResult, WaitReport, error) {
	taskID := strings.TrimSpace(args.TaskID)
	if taskID == "" {
		return nil, WaitReport{}, fmt.Errorf("task ID cannot be empty")
	}

	maxWait := args.MaxWaitMinutes
	if maxWait <= 0 {
		maxWait = defaultMaxWaitMinutes
	}

	log.WithField("task_id", taskID).Info("checking task status")

	task, err := h.tes.GetTask(ctx, taskID, ViewMinimal)
	if err != nil {
		return nil, WaitReport{}, wrapToolError("check status of", taskID, err)
	}

	state := task.State
	if state == "" {
		state = StateUnknown
	}
	name := task.Name
	if name == "" {
		name = "Unnamed Task"
	}

	elapsed := ElapsedMinutes(task.CreationTime, time.Now().UTC())
	status := Classify(state, elapsed, float64(maxWait))
	interval := AdaptiveInterval(state, elapsed, h.cfg.PollInterval)

	log.WithFields(log.Fields{
		"task_id":          taskID,
		"state":            state,
		"terminal":         state.Terminal(),
		"duration_minutes": fmt.Sprintf("%.1f", elapsed),
		"status":           status,
	}).Info("task classified")

	report := BuildWaitReport(status, taskID, name, state, elapsed, interval, maxWait)
	return nil, report, nil
}
