package models

import (
	"strings"
	"time"
)

// Department identifies one of the reviewing offices.
type Department string

const (
	DepartmentLibrary  Department = "LIBRARY"
	DepartmentBursar   Department = "BURSAR"
	DepartmentAcademic Department = "ACADEMIC"
)

// Departments lists reviewing offices in workflow order.
var Departments = []Department{DepartmentLibrary, DepartmentBursar, DepartmentAcademic}

// ParseDepartment normalises user input into a Department.
func ParseDepartment(raw string) (Department, bool) {
	dept := Department(strings.ToUpper(strings.TrimSpace(raw)))
	switch dept {
	case DepartmentLibrary, DepartmentBursar, DepartmentAcademic:
		return dept, true
	default:
		return "", false
	}
}

// DepartmentStatus is a department verdict string.
type DepartmentStatus string

const (
	DepartmentStatusPending         DepartmentStatus = "PENDING"
	DepartmentStatusApproved        DepartmentStatus = "APPROVED"
	DepartmentStatusHold            DepartmentStatus = "HOLD"
	DepartmentStatusFinesDue        DepartmentStatus = "FINES_DUE"
	DepartmentStatusAwaitingPayment DepartmentStatus = "AWAITING_PAYMENT"
	DepartmentStatusCompleted       DepartmentStatus = "COMPLETED"
)

type departmentVocabulary struct {
	neutral  DepartmentStatus
	verdicts map[DepartmentStatus]struct{}
	cleared  map[DepartmentStatus]struct{}
}

// Each department owns its neutral value and verdict set; they are not assumed
// to be shared.
var vocabularies = map[Department]departmentVocabulary{
	DepartmentLibrary: {
		neutral:  DepartmentStatusPending,
		verdicts: statusSet(DepartmentStatusApproved, DepartmentStatusHold, DepartmentStatusFinesDue),
		cleared:  statusSet(DepartmentStatusApproved),
	},
	DepartmentBursar: {
		neutral:  DepartmentStatusPending,
		verdicts: statusSet(DepartmentStatusApproved, DepartmentStatusAwaitingPayment, DepartmentStatusHold),
		cleared:  statusSet(DepartmentStatusApproved),
	},
	DepartmentAcademic: {
		neutral:  DepartmentStatusPending,
		verdicts: statusSet(DepartmentStatusApproved, DepartmentStatusHold, DepartmentStatusCompleted),
		cleared:  statusSet(DepartmentStatusApproved, DepartmentStatusCompleted),
	},
}

func statusSet(values ...DepartmentStatus) map[DepartmentStatus]struct{} {
	set := make(map[DepartmentStatus]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// NormalizeDepartmentStatus maps free text such as "Awaiting Payment" onto the
// canonical upper snake case form.
func NormalizeDepartmentStatus(raw string) DepartmentStatus {
	value := strings.ToUpper(strings.TrimSpace(raw))
	value = strings.NewReplacer(" ", "_", "-", "_").Replace(value)
	return DepartmentStatus(value)
}

// NeutralStatus returns the initial status of the department.
func NeutralStatus(dept Department) DepartmentStatus {
	if vocab, ok := vocabularies[dept]; ok {
		return vocab.neutral
	}
	return DepartmentStatusPending
}

// AllowedStatuses returns the statuses a department may record, neutral first.
func AllowedStatuses(dept Department) []DepartmentStatus {
	vocab, ok := vocabularies[dept]
	if !ok {
		return nil
	}
	result := []DepartmentStatus{vocab.neutral}
	for _, status := range []DepartmentStatus{
		DepartmentStatusApproved,
		DepartmentStatusHold,
		DepartmentStatusFinesDue,
		DepartmentStatusAwaitingPayment,
		DepartmentStatusCompleted,
	} {
		if _, ok := vocab.verdicts[status]; ok {
			result = append(result, status)
		}
	}
	return result
}

// ValidDepartmentStatus reports whether the status belongs to the department vocabulary.
func ValidDepartmentStatus(dept Department, status DepartmentStatus) bool {
	vocab, ok := vocabularies[dept]
	if !ok {
		return false
	}
	if status == vocab.neutral {
		return true
	}
	_, ok = vocab.verdicts[status]
	return ok
}

// Clearance is the decided/pending view of a department status.
type Clearance struct {
	Department Department
	Decided    bool
	Verdict    DepartmentStatus
	// Recognized is false when a decided verdict is outside the vocabulary.
	Recognized bool
}

// Pending reports whether the department has not acted yet.
func (c Clearance) Pending() bool {
	return !c.Decided
}

// Cleared reports whether the verdict releases the department hold.
func (c Clearance) Cleared() bool {
	if !c.Decided {
		return false
	}
	_, ok := vocabularies[c.Department].cleared[c.Verdict]
	return ok
}

// ClearanceOf interprets a raw department status. Empty values count as the
// neutral state.
func ClearanceOf(dept Department, raw DepartmentStatus) Clearance {
	status := NormalizeDepartmentStatus(string(raw))
	if status == "" || status == NeutralStatus(dept) {
		return Clearance{Department: dept, Verdict: NeutralStatus(dept), Recognized: true}
	}
	return Clearance{
		Department: dept,
		Decided:    true,
		Verdict:    status,
		Recognized: ValidDepartmentStatus(dept, status),
	}
}

// RequestStatus is the overall lifecycle of a transcript request.
type RequestStatus string

const (
	RequestStatusSubmitted  RequestStatus = "SUBMITTED"
	RequestStatusInReview   RequestStatus = "IN_REVIEW"
	RequestStatusProcessing RequestStatus = "PROCESSING"
	RequestStatusCompleted  RequestStatus = "COMPLETED"
	RequestStatusCancelled  RequestStatus = "CANCELLED"
)

// NormalizeRequestStatus applies the department status normalisation to a
// lifecycle status.
func NormalizeRequestStatus(raw string) RequestStatus {
	return RequestStatus(NormalizeDepartmentStatus(raw))
}

// ActiveRequestStatuses are the lifecycle states still awaiting work.
var ActiveRequestStatuses = []RequestStatus{RequestStatusSubmitted, RequestStatusInReview, RequestStatusProcessing}

// ValidRequestStatus reports whether the value is a known lifecycle status.
func ValidRequestStatus(status RequestStatus) bool {
	switch status {
	case RequestStatusSubmitted, RequestStatusInReview, RequestStatusProcessing, RequestStatusCompleted, RequestStatusCancelled:
		return true
	default:
		return false
	}
}

// TranscriptRequest is the single mutable row tracking one student request.
type TranscriptRequest struct {
	ID                string           `db:"id" json:"id"`
	RequestID         *string          `db:"request_id" json:"requestId,omitempty"`
	StudentID         string           `db:"student_id" json:"studentId"`
	StudentEmail      string           `db:"student_email" json:"studentEmail"`
	Requestor         string           `db:"requestor" json:"requestor"`
	Program           string           `db:"program" json:"program"`
	Status            RequestStatus    `db:"status" json:"status"`
	LibraryStatus     DepartmentStatus `db:"library_status" json:"libraryStatus"`
	LibraryDueAmount  *string          `db:"library_due_amount" json:"libraryDueAmount,omitempty"`
	LibraryDueDetails *string          `db:"library_due_details" json:"libraryDueDetails,omitempty"`
	LibraryComments   *string          `db:"library_comments" json:"libraryComments,omitempty"`
	BursarStatus      DepartmentStatus `db:"bursar_status" json:"bursarStatus"`
	BursarDueAmount   *string          `db:"bursar_due_amount" json:"bursarDueAmount,omitempty"`
	BursarDueDetails  *string          `db:"bursar_due_details" json:"bursarDueDetails,omitempty"`
	BursarComments    *string          `db:"bursar_comments" json:"bursarComments,omitempty"`
	AcademicStatus    DepartmentStatus `db:"academic_status" json:"academicStatus"`
	AcademicComments  *string          `db:"academic_comments" json:"academicComments,omitempty"`
	ProcessorComments *string          `db:"processor_comments" json:"processorComments,omitempty"`
	Created           time.Time        `db:"created" json:"created"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updatedAt"`
}

// DisplayRequestID returns the human code, deriving one from the id prefix when absent.
func (r *TranscriptRequest) DisplayRequestID() string {
	if r == nil {
		return ""
	}
	if r.RequestID != nil && strings.TrimSpace(*r.RequestID) != "" {
		return strings.TrimSpace(*r.RequestID)
	}
	id := strings.ReplaceAll(r.ID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

// StatusOf returns the raw status recorded for the department.
func (r *TranscriptRequest) StatusOf(dept Department) DepartmentStatus {
	switch dept {
	case DepartmentLibrary:
		return r.LibraryStatus
	case DepartmentBursar:
		return r.BursarStatus
	case DepartmentAcademic:
		return r.AcademicStatus
	default:
		return ""
	}
}

// Clearance returns the decided/pending view for the department.
func (r *TranscriptRequest) Clearance(dept Department) Clearance {
	return ClearanceOf(dept, r.StatusOf(dept))
}

// UpstreamDecided reports whether Library and Bursar have both acted.
func (r *TranscriptRequest) UpstreamDecided() bool {
	return r.Clearance(DepartmentLibrary).Decided && r.Clearance(DepartmentBursar).Decided
}

// FullyCleared reports whether every department released its hold.
func (r *TranscriptRequest) FullyCleared() bool {
	for _, dept := range Departments {
		if !r.Clearance(dept).Cleared() {
			return false
		}
	}
	return true
}

// TranscriptRequestFilter constrains list and sweep queries.
type TranscriptRequestFilter struct {
	Status       []RequestStatus
	StudentID    string
	Program      string
	Pending      []Department
	Decided      []Department
	CreatedUntil *time.Time
	Search       string
	Limit        int
	Offset       int
}

// DepartmentUpdate carries a department decision. Due fields apply to Library
// and Bursar only.
type DepartmentUpdate struct {
	Status     DepartmentStatus
	DueAmount  *string
	DueDetails *string
	Comments   *string
}
