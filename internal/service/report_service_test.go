package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-hq/academics-api/internal/models"
	"github.com/campus-hq/academics-api/internal/repository"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
	"github.com/campus-hq/academics-api/pkg/storage"
)

// The file store and signer wired in main must keep satisfying the
// consumer interfaces here.
var (
	_ reportFileStore = (*storage.LocalStorage)(nil)
	_ reportURLSigner = (*storage.SignedURLSigner)(nil)
)

type mockReportJobs struct {
	jobs map[string]*models.ReportJob
}

func (m *mockReportJobs) Create(_ context.Context, job *models.ReportJob) error {
	if m.jobs == nil {
		m.jobs = map[string]*models.ReportJob{}
	}
	m.jobs[job.ID] = job
	return nil
}

func (m *mockReportJobs) GetByID(_ context.Context, id string) (*models.ReportJob, error) {
	if job, ok := m.jobs[id]; ok {
		return job, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReportJobs) Update(_ context.Context, id string, _ repository.UpdateReportJobParams) error {
	if _, ok := m.jobs[id]; !ok {
		return sql.ErrNoRows
	}
	return nil
}

func (m *mockReportJobs) ListQueued(context.Context, int) ([]models.ReportJob, error) {
	return nil, nil
}

func (m *mockReportJobs) ListFinishedBefore(context.Context, time.Time, int) ([]models.ReportJob, error) {
	return nil, nil
}

func reportFixture(t *testing.T) (*ReportService, *mockReportJobs, *storage.LocalStorage, *storage.SignedURLSigner) {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("report-secret", time.Hour)
	jobs := &mockReportJobs{jobs: map[string]*models.ReportJob{}}
	svc := NewReportService(jobs, nil, nil, nil, files, signer, nil, time.Hour, 1, 1, nil)
	return svc, jobs, files, signer
}

func TestResolveDownloadServesRenderedFile(t *testing.T) {
	svc, jobs, files, signer := reportFixture(t)

	relPath, err := files.Save("class-report.csv", []byte("Roll No,Student\n1,A\n"))
	require.NoError(t, err)
	jobs.jobs["j1"] = &models.ReportJob{ID: "j1", Status: models.ReportStatusDone, FilePath: &relPath}

	token, _, err := signer.Generate("j1", relPath)
	require.NoError(t, err)

	path, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, files.Path(relPath), path)
}

func TestResolveDownloadRejectsBadToken(t *testing.T) {
	svc, _, _, _ := reportFixture(t)

	_, err := svc.ResolveDownload(context.Background(), "not.a.real.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestResolveDownloadRejectsUnfinishedJob(t *testing.T) {
	svc, jobs, _, signer := reportFixture(t)

	relPath := "pending.csv"
	jobs.jobs["j2"] = &models.ReportJob{ID: "j2", Status: models.ReportStatusQueued, FilePath: nil}
	token, _, err := signer.Generate("j2", relPath)
	require.NoError(t, err)

	_, err = svc.ResolveDownload(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
