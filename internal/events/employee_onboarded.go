package events

import "time"

const EmployeeLifecycleTopic = "hr.employee.lifecycle.v1"

// EmployeeOnboardedEvent is consumed from the HR system. Receiving one
// triggers allocation provisioning for the new employee's current period.
type EmployeeOnboardedEvent struct {
	EventType  string    `json:"event_type"`
	EmployeeID string    `json:"employee_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
