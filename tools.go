// tools.go defines the shared plumbing for the MCP tool handlers: the narrow
// client interface they depend on and the error wrapping that turns typed
// client failures into one user-facing message with context.
package main

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// taskService is the slice of the TES client the tool handlers need. Tests
// substitute a mock to assert that invalid input never reaches the network.
type taskService interface {
	CreateTask(ctx context.Context, task *Task) (*CreateTaskResponse, error)
	GetTask(ctx context.Context, taskID string, view View) (*Task, error)
}

// toolHandlers holds the immutable dependencies shared by all three tools.
type toolHandlers struct {
	tes taskService
	cfg Config
}

func newToolHandlers(tes taskService, cfg Config) *toolHandlers {
	return &toolHandlers{tes: tes, cfg: cfg}
}

// wrapToolError collapses the client error taxonomy (plus anything
// unexpected) into a single user-facing error carrying the operation, the
// task id when known, and guidance matching the failure kind. Nothing is
// retried here — retries happen at the transport layer only.
func wrapToolError(op, taskID string, err error) error {
	ref := ""
	if taskID != "" {
		ref = fmt.Sprintf(" task %s", taskID)
	}

	var (
		authErr     *AuthError
		notFoundErr *NotFoundError
		serverErr   *ServerError
		clientErr   *ClientError
	)
	switch {
	case errors.As(err, &notFoundErr):
		return fmt.Errorf("failed to %s%s: %w. Verify the task ID is correct and the task exists", op, ref, err)
	case errors.As(err, &authErr):
		return fmt.Errorf("failed to %s%s: %w. Check your TES_TOKEN environment variable", op, ref, err)
	case errors.As(err, &serverErr):
		return fmt.Errorf("failed to %s%s: %w. The TES service may be experiencing issues", op, ref, err)
	case errors.As(err, &clientErr):
		return fmt.Errorf("failed to %s%s: %w. Check your task specification and network connectivity", op, ref, err)
	}

	log.WithError(err).WithField("operation", op).Error("unexpected tool error")
	return fmt.Errorf("unexpected error during %s%s: %w", op, ref, err)
}
