package dto

// CreateTranscriptRequest is the submission payload. Students submit for
// themselves; administrators may submit on a student's behalf.
type CreateTranscriptRequest struct {
	RequestID    string `json:"requestId" validate:"omitempty,max=32"`
	StudentID    string `json:"studentId" validate:"omitempty,max=64"`
	StudentEmail string `json:"studentEmail" validate:"omitempty,email"`
	Requestor    string `json:"requestor" validate:"omitempty,max=200"`
	Program      string `json:"program" validate:"required,max=200"`
}

// UpdateDepartmentStatusRequest records a department decision.
type UpdateDepartmentStatusRequest struct {
	Status     string  `json:"status" validate:"required"`
	DueAmount  *string `json:"dueAmount" validate:"omitempty,max=64"`
	DueDetails *string `json:"dueDetails" validate:"omitempty,max=2000"`
	Comments   *string `json:"comments" validate:"omitempty,max=2000"`
}

// UpdateRequestStatusRequest changes the overall lifecycle status.
type UpdateRequestStatusRequest struct {
	Status   string  `json:"status" validate:"required,oneof=SUBMITTED IN_REVIEW PROCESSING COMPLETED CANCELLED"`
	Comments *string `json:"comments" validate:"omitempty,max=2000"`
}

// TranscriptRequestQuery holds list filters from the query string.
type TranscriptRequestQuery struct {
	Status    []string `form:"status"`
	StudentID string   `form:"studentId"`
	Program   string   `form:"program"`
	Pending   []string `form:"pending"`
	Search    string   `form:"search"`
	Page      int      `form:"page"`
	PageSize  int      `form:"pageSize"`
}
