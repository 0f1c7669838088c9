package allocation

import (
	"time"

	"leavedesk/internal/leavetype"

	"github.com/google/uuid"
)

// LeaveAllocation is one employee's remaining leave days for one leave type
// in one period (calendar year). The unique index makes the scope the key;
// number_of_days is mutated only by ledger debits and credits.
type LeaveAllocation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_allocations_scope"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_allocations_scope"`
	Period      int       `gorm:"type:int;not null;uniqueIndex:uq_leave_allocations_scope"`

	NumberOfDays int `gorm:"type:int;not null;default:0;check:number_of_days >= 0"`

	LeaveType *leavetype.LeaveType `gorm:"foreignKey:LeaveTypeID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
