package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/transcript-clearance-api/internal/dto"
	"github.com/noah-isme/transcript-clearance-api/internal/middleware"
	"github.com/noah-isme/transcript-clearance-api/internal/models"
	"github.com/noah-isme/transcript-clearance-api/internal/service"
	appErrors "github.com/noah-isme/transcript-clearance-api/pkg/errors"
	"github.com/noah-isme/transcript-clearance-api/pkg/response"
)

type transcriptRequestService interface {
	Create(ctx context.Context, claims *models.JWTClaims, payload dto.CreateTranscriptRequest) (*models.TranscriptRequest, error)
	Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.TranscriptRequest, error)
	List(ctx context.Context, query dto.TranscriptRequestQuery) ([]models.TranscriptRequest, *models.Pagination, error)
	UpdateDepartmentStatus(ctx context.Context, claims *models.JWTClaims, id, department string, payload dto.UpdateDepartmentStatusRequest) (*service.DepartmentDecision, error)
	UpdateStatus(ctx context.Context, claims *models.JWTClaims, id string, payload dto.UpdateRequestStatusRequest) (*models.TranscriptRequest, error)
	ListAudit(ctx context.Context, id string) ([]models.AuditEvent, error)
}

type transcriptExporter interface {
	RequestsCSV(ctx context.Context, query dto.TranscriptRequestQuery) (*service.ExportFile, error)
	ClearanceSlip(ctx context.Context, id string) (*service.ExportFile, error)
}

// TranscriptRequestHandler exposes transcript request endpoints.
type TranscriptRequestHandler struct {
	service  transcriptRequestService
	exporter transcriptExporter
}

// NewTranscriptRequestHandler builds a new handler.
func NewTranscriptRequestHandler(service transcriptRequestService, exporter transcriptExporter) *TranscriptRequestHandler {
	return &TranscriptRequestHandler{service: service, exporter: exporter}
}

// Create godoc
// @Summary Submit a transcript request
// @Tags TranscriptRequests
// @Accept json
// @Produce json
// @Param payload body dto.CreateTranscriptRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /transcript-requests [post]
func (h *TranscriptRequestHandler) Create(c *gin.Context) {
	var req dto.CreateTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transcript request payload"))
		return
	}
	created, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// List godoc
// @Summary List transcript requests
// @Tags TranscriptRequests
// @Produce json
// @Param status query []string false "Lifecycle status" collectionFormat(multi)
// @Param pending query []string false "Departments still pending" collectionFormat(multi)
// @Param studentId query string false "Student ID"
// @Param program query string false "Program"
// @Param search query string false "Free text search"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /transcript-requests [get]
func (h *TranscriptRequestHandler) List(c *gin.Context) {
	var query dto.TranscriptRequestQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get a transcript request
// @Tags TranscriptRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /transcript-requests/{id} [get]
func (h *TranscriptRequestHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// UpdateDepartment godoc
// @Summary Record a department decision
// @Description Triggers status change notifications and, for Library and Bursar, evaluates the Academic gate.
// @Tags TranscriptRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param department path string true "LIBRARY, BURSAR or ACADEMIC"
// @Param payload body dto.UpdateDepartmentStatusRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /transcript-requests/{id}/departments/{department} [patch]
func (h *TranscriptRequestHandler) UpdateDepartment(c *gin.Context) {
	var req dto.UpdateDepartmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid department decision payload"))
		return
	}
	decision, err := h.service.UpdateDepartmentStatus(c.Request.Context(), claimsFromContext(c), c.Param("id"), c.Param("department"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if decision.AcademicGate != nil {
		middleware.SetMeta(c, "academicGate", decision.AcademicGate)
	}
	response.JSON(c, http.StatusOK, decision.Request, nil, middleware.ExtractMeta(c))
}

// UpdateStatus godoc
// @Summary Change the overall request status
// @Tags TranscriptRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.UpdateRequestStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /transcript-requests/{id}/status [patch]
func (h *TranscriptRequestHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request status payload"))
		return
	}
	item, err := h.service.UpdateStatus(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Audit godoc
// @Summary List the journal of a transcript request
// @Tags TranscriptRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /transcript-requests/{id}/audit [get]
func (h *TranscriptRequestHandler) Audit(c *gin.Context) {
	events, err := h.service.ListAudit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Export godoc
// @Summary Export transcript requests as CSV
// @Tags TranscriptRequests
// @Produce text/csv
// @Param status query []string false "Lifecycle status" collectionFormat(multi)
// @Param pending query []string false "Departments still pending" collectionFormat(multi)
// @Success 200 {file} file
// @Router /transcript-requests/export [get]
func (h *TranscriptRequestHandler) Export(c *gin.Context) {
	var query dto.TranscriptRequestQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	file, err := h.exporter.RequestsCSV(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// ClearanceSlip godoc
// @Summary Download the clearance slip of a request
// @Tags TranscriptRequests
// @Produce application/pdf
// @Param id path string true "Request ID"
// @Success 200 {file} file
// @Router /transcript-requests/{id}/clearance-slip [get]
func (h *TranscriptRequestHandler) ClearanceSlip(c *gin.Context) {
	file, err := h.exporter.ClearanceSlip(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
