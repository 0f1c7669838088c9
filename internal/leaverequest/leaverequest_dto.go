package leaverequest

import "leavedesk/internal/allocation"

type CreateLeaveRequestRequest struct {
	LeaveTypeID string `json:"leave_type_id" binding:"required,uuid"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	Comments    string `json:"comments" binding:"max=500"`
}

type LeaveRequestResponse struct {
	ID            string  `json:"id"`
	EmployeeID    string  `json:"employee_id"`
	LeaveTypeID   string  `json:"leave_type_id"`
	LeaveTypeName string  `json:"leave_type_name,omitempty"`
	Period        int     `json:"period"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	DaysRequested int     `json:"days_requested"`
	Comments      string  `json:"comments,omitempty"`
	State         string  `json:"state"`
	Cancelled     bool    `json:"cancelled"`
	ApprovedBy    *string `json:"approved_by,omitempty"`
	DateRequested string  `json:"date_requested"`
	DateActioned  *string `json:"date_actioned,omitempty"`
}

// AdminLeaveSummaryResponse is the admin index view: the full request list
// plus counts derived from it. Counters are never stored.
type AdminLeaveSummaryResponse struct {
	TotalRequests    int                    `json:"total_requests"`
	ApprovedRequests int                    `json:"approved_requests"`
	PendingRequests  int                    `json:"pending_requests"`
	RejectedRequests int                    `json:"rejected_requests"`
	LeaveRequests    []LeaveRequestResponse `json:"leave_requests"`
}

// EmployeeLeaveViewResponse is the employee's own view: current allocations
// alongside every request they have submitted.
type EmployeeLeaveViewResponse struct {
	Allocations   []allocation.AllocationResponse `json:"allocations"`
	LeaveRequests []LeaveRequestResponse          `json:"leave_requests"`
}
