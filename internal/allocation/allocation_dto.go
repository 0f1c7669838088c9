package allocation

type ProvisionRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	Period     int    `json:"period" binding:"required,gte=2000,lte=2200"`
}

type AllocationResponse struct {
	ID            string `json:"id"`
	EmployeeID    string `json:"employee_id"`
	LeaveTypeID   string `json:"leave_type_id"`
	LeaveTypeName string `json:"leave_type_name,omitempty"`
	Period        int    `json:"period"`
	NumberOfDays  int    `json:"number_of_days"`
}

type ProvisionResponse struct {
	EmployeeID  string `json:"employee_id"`
	Period      int    `json:"period"`
	Provisioned int    `json:"provisioned"`
	Skipped     int    `json:"skipped"`
}
