package dto

// EmployeeStatusRequest toggles an employee between Active and Inactive.
type EmployeeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
