// create_task.go implements the create_tes_task tool: validate the task spec
// locally, submit it, and hand back the server-assigned id with guidance.
package main

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"
)

// CreateTaskArgs is the input for the create_tes_task tool.
type CreateTaskArgs struct {
	Task Task `json:"task" jsonschema:"The complete TES task specification: name, executors (required), inputs, outputs, resources, volumes, tags"`
}

// CreateTaskOutput is returned once the server has accepted the task.
type CreateTaskOutput struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

const createTaskDescription = `Creates a new computational task using the GA4GH Task Execution Service (TES).

**When to use this tool:**
- When you need to execute computational workflows or analyses
- When processing data that requires specific software environments
- When running batch jobs that need defined resource allocations

**Required task components:**
- 'executors': At least one executor defining the command(s) to run
- 'name': A descriptive name for the task (recommended)

**After creating a task:**
1. Use wait_for_task_completion to monitor progress
2. Use get_tes_task with view="FULL" to see logs and detailed status
3. Check outputs once the task completes successfully

**Returns:** Task ID and success confirmation with guidance on next steps.`

func (h *toolHandlers) createTask(ctx context.Context, req *mcp.CallToolRequest, args CreateTaskArgs) (*mcp.CallToolResult, CreateTaskOutput, error) {
	task := args.Task

	// Fail fast on an invalid spec — no network call is made.
	if len(task.Executors) == 0 {
		return nil, CreateTaskOutput{}, fmt.Errorf(
			"task must have at least one executor: provide a list of executors with commands to run")
	}
	if err := task.Validate(); err != nil {
		return nil, CreateTaskOutput{}, fmt.Errorf("invalid task specification: %w", err)
	}

	name := task.Name
	if name == "" {
		name = "Unnamed Task"
	}
	log.WithField("task_name", name).Info("creating task")

	resp, err := h.tes.CreateTask(ctx, &task)
	if err != nil {
		return nil, CreateTaskOutput{}, wrapToolError("create task", "", err)
	}

	out := CreateTaskOutput{
		ID: resp.ID,
		Message: fmt.Sprintf("Task '%s' created with ID %s. Use wait_for_task_completion to monitor progress.",
			name, resp.ID),
	}
	return nil, out, nil
}
