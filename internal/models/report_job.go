package models

import "time"

// ReportType selects the dataset exported by a report job.
type ReportType string

const (
	ReportCompletion ReportType = "COMPLETION"
	ReportDefaulters ReportType = "DEFAULTERS"
)

// ReportFormat selects the rendered output format.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportStatus tracks report job lifecycle.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusDone       ReportStatus = "DONE"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportJobParams captures the scope of a report job.
type ReportJobParams struct {
	ClassID      string       `json:"class_id,omitempty"`
	DepartmentID string       `json:"department_id,omitempty"`
	Year         int          `json:"year,omitempty"`
	Format       ReportFormat `json:"format"`
}

// ReportJob tracks an asynchronous export request.
type ReportJob struct {
	ID           string          `db:"id" json:"id"`
	Type         ReportType      `db:"type" json:"type"`
	Params       ReportJobParams `db:"-" json:"params"`
	ParamsJSON   string          `db:"params" json:"-"`
	Status       ReportStatus    `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	FilePath     *string         `db:"file_path" json:"-"`
	ResultURL    *string         `db:"result_url" json:"result_url,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
}
