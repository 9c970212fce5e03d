package dto

import "github.com/campus-hq/academics-api/internal/models"

// ReportRequest queues an export of completion or defaulter data.
type ReportRequest struct {
	Type         models.ReportType   `json:"type" validate:"required,oneof=COMPLETION DEFAULTERS"`
	ClassID      string              `json:"class_id,omitempty"`
	DepartmentID string              `json:"department_id,omitempty"`
	Year         int                 `json:"year,omitempty" validate:"omitempty,min=1,max=4"`
	Format       models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ReportJobResponse acknowledges a queued job.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job state to polling clients.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
