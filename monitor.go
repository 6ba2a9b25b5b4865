// monitor.go is the task-monitoring core: it classifies a raw TES state plus
// elapsed wall-clock time into a simplified status, computes the recommended
// next-poll interval, and renders the structured guidance report.
//
// Everything here is a pure function of its inputs. No state machine is kept
// across calls and nothing ever sleeps — the wait tool returns a
// recommendation and the caller schedules the next check.
package main

import (
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
)

// SimplifiedStatus is the coarse classification of a task's remote state,
// derived for agent consumption. It is never persisted.
type SimplifiedStatus string

const (
	StatusCompletedSuccess    SimplifiedStatus = "completed_success"
	StatusCompletedFailed     SimplifiedStatus = "completed_failed"
	StatusStillRunning        SimplifiedStatus = "still_running"
	StatusStillRunningTimeout SimplifiedStatus = "still_running_timeout"
	StatusCanceled            SimplifiedStatus = "canceled"
	StatusErrorState          SimplifiedStatus = "error_state"
	StatusUnknownState        SimplifiedStatus = "unknown_state"
)

// WaitStrategy is the recommended course of action attached to a report.
type WaitStrategy string

const (
	WaitContinue       WaitStrategy = "continue_waiting"
	WaitCheckLogs      WaitStrategy = "check_logs"
	WaitNotifyUser     WaitStrategy = "notify_user"
	WaitSuccessProceed WaitStrategy = "success_proceed"
)

// Classify maps a raw state and elapsed time onto a SimplifiedStatus. Total
// over all states: anything unrecognized degrades to unknown_state rather
// than failing, so a TES server introducing new states keeps being monitored.
// The timeout boundary is inclusive: elapsed == maxWait counts as timed out.
func Classify(state State, elapsedMinutes, maxWaitMinutes float64) SimplifiedStatus {
	switch state {
	case StateComplete:
		return StatusCompletedSuccess
	case StateExecutorError, StateSystemError:
		return StatusCompletedFailed
	case StateCanceled:
		return StatusCanceled
	case StateRunning, StateQueued, StateInitializing:
		if elapsedMinutes >= maxWaitMinutes {
			return StatusStillRunningTimeout
		}
		return StatusStillRunning
	case StatePaused, StatePreempted:
		return StatusErrorState
	}
	return StatusUnknownState
}

// AdaptiveInterval recommends the delay in seconds before the next status
// check. Young tasks are polled fast to catch near-instant completions; long
// RUNNING tasks back off in bounded steps (not exponentially) so the gap
// between polls never grows unbounded; ambiguous states poll faster.
func AdaptiveInterval(state State, elapsedMinutes float64, baseInterval int) int {
	if elapsedMinutes < 1 {
		return max(2, baseInterval/2)
	}

	switch state {
	case StateRunning, StateInitializing:
		switch {
		case elapsedMinutes < 5:
			return baseInterval
		case elapsedMinutes < 15:
			return baseInterval * 2
		default:
			return baseInterval * 3
		}
	case StateQueued:
		// queued tasks are cheap to re-check and state changes are discrete
		return baseInterval
	case StateUnknown, StatePaused:
		return max(3, baseInterval/2)
	}
	return baseInterval
}

// ElapsedMinutes computes how long ago a task was created from its RFC 3339
// creation timestamp. A missing or malformed timestamp yields 0.0 with a
// warning — duration parsing never fails the caller.
func ElapsedMinutes(creationTime string, now time.Time) float64 {
	if creationTime == "" {
		return 0.0
	}
	start, err := time.Parse(time.RFC3339, creationTime)
	if err != nil {
		log.WithField("creation_time", creationTime).Warn("could not parse creation time")
		return 0.0
	}
	return now.Sub(start).Minutes()
}

// WaitReport is the wait tool's decision payload: the raw state, the derived
// classification, the polling recommendation, and guidance text.
type WaitReport struct {
	Success               bool             `json:"success"`
	TaskID                string           `json:"task_id"`
	TaskName              string           `json:"task_name"`
	Status                SimplifiedStatus `json:"status"`
	State                 State            `json:"state"`
	TaskDurationMinutes   float64          `json:"task_duration_minutes"`
	EstimatedWaitTime     int              `json:"estimated_wait_time"` // seconds until the next check
	ShouldContinueWaiting bool             `json:"should_continue_waiting"`
	WaitRecommendation    WaitStrategy     `json:"wait_recommendation"`
	NextAction            string           `json:"next_action,omitempty"`
	Message               string           `json:"message"`
	Details               string           `json:"details"`
}

// reportParams carries the values interpolated into a report template.
type reportParams struct {
	taskName        string
	durationMinutes float64
	intervalSeconds int
	maxWaitMinutes  int
	state           State
}

type reportTemplate struct {
	shouldContinueWaiting bool
	recommendation        WaitStrategy
	nextAction            string
	message               func(p reportParams) string
	details               func(p reportParams) string
}

var reportTemplates = map[SimplifiedStatus]reportTemplate{
	StatusCompletedSuccess: {
		shouldContinueWaiting: false,
		recommendation:        WaitSuccessProceed,
		nextAction:            "get_tes_task",
		message: func(p reportParams) string {
			return fmt.Sprintf("Task '%s' completed successfully after %.1f minutes.", p.taskName, p.durationMinutes)
		},
		details: func(p reportParams) string {
			return "Use get_tes_task with view='FULL' to retrieve outputs and logs."
		},
	},
	StatusCompletedFailed: {
		shouldContinueWaiting: false,
		recommendation:        WaitCheckLogs,
		nextAction:            "get_tes_task",
		message: func(p reportParams) string {
			return fmt.Sprintf("Task '%s' failed after %.1f minutes.", p.taskName, p.durationMinutes)
		},
		details: func(p reportParams) string {
			return "Use get_tes_task with view='FULL' to examine error logs."
		},
	},
	StatusCanceled: {
		shouldContinueWaiting: false,
		recommendation:        WaitNotifyUser,
		message: func(p reportParams) string {
			return fmt.Sprintf("Task '%s' was canceled after %.1f minutes.", p.taskName, p.durationMinutes)
		},
		details: func(p reportParams) string {
			return "The task was canceled. Confirm with the user before resubmitting."
		},
	},
	StatusStillRunning: {
		shouldContinueWaiting: true,
		recommendation:        WaitContinue,
		nextAction:            "wait_for_task_completion",
		message: func(p reportParams) string {
			return fmt.Sprintf("Task '%s' is running (%.1f min elapsed).", p.taskName, p.durationMinutes)
		},
		details: func(p reportParams) string {
			return fmt.Sprintf("Task is in progress. Check again in %d seconds.", p.intervalSeconds)
		},
	},
	StatusStillRunningTimeout: {
		shouldContinueWaiting: true,
		recommendation:        WaitNotifyUser,
		nextAction:            "wait_for_task_completion",
		message: func(p reportParams) string {
			return fmt.Sprintf("Task '%s' running for %.1f minutes, exceeding threshold of %d min.",
				p.taskName, p.durationMinutes, p.maxWaitMinutes)
		},
		details: func(p reportParams) string {
			return fmt.Sprintf("Task is taking longer than expected. Continue waiting or notify user. Next check in %d seconds.",
				p.intervalSeconds)
		},
	},
	StatusErrorState: {
		shouldContinueWaiting: false,
		recommendation:        WaitCheckLogs,
		nextAction:            "get_tes_task",
		message: func(p reportParams) string {
			return fmt.Sprintf("Task '%s' is in an error state (%s).", p.taskName, p.state)
		},
		details: func(p reportParams) string {
			return "Use get_tes_task with view='FULL' to investigate."
		},
	},
	StatusUnknownState: {
		shouldContinueWaiting: true,
		recommendation:        WaitContinue,
		nextAction:            "wait_for_task_completion",
		message: func(p reportParams) string {
			return fmt.Sprintf("Task '%s' is in an unknown state (%s).", p.taskName, p.state)
		},
		details: func(p reportParams) string {
			return fmt.Sprintf("Continue monitoring. Next check in %d seconds.", p.intervalSeconds)
		},
	},
}

// BuildWaitReport renders the report for a classification. Template lookup is
// total: an unmapped status falls back to the unknown_state template.
func BuildWaitReport(status SimplifiedStatus, taskID, taskName string, state State,
	durationMinutes float64, intervalSeconds, maxWaitMinutes int) WaitReport {

	tmpl, ok := reportTemplates[status]
	if !ok {
		tmpl = reportTemplates[StatusUnknownState]
	}

	p := reportParams{
		taskName:        taskName,
		durationMinutes: durationMinutes,
		intervalSeconds: intervalSeconds,
		maxWaitMinutes:  maxWaitMinutes,
		state:           state,
	}

	return WaitReport{
		Success:               true,
		TaskID:                taskID,
		TaskName:              taskName,
		Status:                status,
		State:                 state,
		TaskDurationMinutes:   math.Round(durationMinutes*10) / 10,
		EstimatedWaitTime:     intervalSeconds,
		ShouldContinueWaiting: tmpl.shouldContinueWaiting,
		WaitRecommendation:    tmpl.recommendation,
		NextAction:            tmpl.nextAction,
		Message:               tmpl.message(p),
		Details:               tmpl.details(p),
	}
}
