package leaverequest

import (
	"time"

	"leavedesk/internal/leavetype"

	"github.com/google/uuid"
)

const (
	StatePending  = "PENDING"
	StateApproved = "APPROVED"
	StateRejected = "REJECTED"
)

// LeaveRequest is immutable after submission except for the four lifecycle
// fields (Approved, ApprovedByID, Cancelled, DateActioned). DaysRequested is
// computed once at creation and never recomputed; Period pins the allocation
// row the reservation was debited from, so a credit after a year boundary
// still restores the right balance.
type LeaveRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_employee"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null"`
	Period      int       `gorm:"type:int;not null"`

	StartDate     time.Time `gorm:"type:date;not null"`
	EndDate       time.Time `gorm:"type:date;not null"`
	DaysRequested int       `gorm:"type:int;not null"`
	Comments      string    `gorm:"type:varchar(500)"`

	// Approved is tri-state: nil = pending, true = approved, false = rejected.
	// Cancelled is an orthogonal flag, reachable only from pending or approved.
	Approved      *bool      `gorm:"type:boolean"`
	ApprovedByID  *uuid.UUID `gorm:"type:uuid"`
	Cancelled     bool       `gorm:"type:boolean;not null;default:false"`
	DateRequested time.Time  `gorm:"not null"`
	DateActioned  *time.Time

	LeaveType *leavetype.LeaveType `gorm:"foreignKey:LeaveTypeID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// State reports the tagged decision state, independent of Cancelled.
func (r *LeaveRequest) State() string {
	switch {
	case r.Approved == nil:
		return StatePending
	case *r.Approved:
		return StateApproved
	default:
		return StateRejected
	}
}

// IsPending reports whether the request still awaits a decision and has not
// been withdrawn. Approve and Reject require this.
func (r *LeaveRequest) IsPending() bool {
	return r.Approved == nil && !r.Cancelled
}

// CanCancel reports whether Cancel is a legal transition: pending or approved,
// and not already cancelled. Rejected requests hold no reservation to release.
func (r *LeaveRequest) CanCancel() bool {
	if r.Cancelled {
		return false
	}
	return r.Approved == nil || *r.Approved
}

// HoldsReservation reports whether the request currently consumes days from
// its allocation: pending or approved, and not cancelled.
func (r *LeaveRequest) HoldsReservation() bool {
	if r.Cancelled {
		return false
	}
	return r.Approved == nil || *r.Approved
}
