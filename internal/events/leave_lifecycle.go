package events

import "time"

const LeaveLifecycleTopic = "hr.leave.lifecycle.v1"

const (
	LeaveRequestSubmitted = "leave_request.submitted"
	LeaveRequestApproved  = "leave_request.approved"
	LeaveRequestRejected  = "leave_request.rejected"
	LeaveRequestCancelled = "leave_request.cancelled"
)

// LeaveLifecycleEvent is published for every committed request transition.
type LeaveLifecycleEvent struct {
	EventType     string    `json:"event_type"`
	RequestID     string    `json:"request_id"`
	EmployeeID    string    `json:"employee_id"`
	LeaveTypeID   string    `json:"leave_type_id"`
	Period        int       `json:"period"`
	DaysRequested int       `json:"days_requested"`
	OccurredAt    time.Time `json:"occurred_at"`
}
