package cron_feature

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-travel/internal/common/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockJobRunRepo struct {
	mu   sync.Mutex
	Runs []JobRun
}

func (m *MockJobRunRepo) Create(ctx context.Context, run *JobRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs = append(m.Runs, *run)
	return nil
}

func (m *MockJobRunRepo) Recent(ctx context.Context, job string, limit int) ([]JobRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []JobRun{}
	for i := len(m.Runs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.Runs[i].Job == job {
			out = append(out, m.Runs[i])
		}
	}
	return out, nil
}

type fakeJob struct {
	result  JobResult
	err     error
	started chan struct{}
	release chan struct{}
}

func (j *fakeJob) Name() string { return "fake" }

func (j *fakeJob) Run(ctx context.Context) (JobResult, error) {
	if j.started != nil {
		j.started <- struct{}{}
	}
	if j.release != nil {
		<-j.release
	}
	return j.result, j.err
}

func TestRunNowRecordsRun(t *testing.T) {
	repo := &MockJobRunRepo{}
	s := newCronService(repo, zap.NewNop())
	s.Register(&fakeJob{result: JobResult{Scanned: 4, Corrected: 1}}, "")

	run, err := s.RunNow(context.Background(), "fake")
	require.NoError(t, err)
	assert.Equal(t, RunSucceeded, run.Status)
	assert.Equal(t, TriggerManual, run.Trigger)
	assert.Equal(t, 1, run.Corrected)

	logs, err := s.GetJobLogs(context.Background(), "fake", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 4, logs[0].Scanned)
}

func TestRunNowRecordsFailure(t *testing.T) {
	repo := &MockJobRunRepo{}
	s := newCronService(repo, zap.NewNop())
	s.Register(&fakeJob{err: errors.New("list applications: timeout")}, "")

	run, err := s.RunNow(context.Background(), "fake")
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, RunFailed, run.Status)
	assert.Equal(t, "list applications: timeout", repo.Runs[0].Error)
}

func TestUnknownJob(t *testing.T) {
	s := newCronService(&MockJobRunRepo{}, zap.NewNop())

	_, err := s.RunNow(context.Background(), "nope")
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	_, err = s.GetJobLogs(context.Background(), "nope", 5)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestJobDoesNotOverlap(t *testing.T) {
	job := &fakeJob{started: make(chan struct{}, 1), release: make(chan struct{})}
	s := newCronService(&MockJobRunRepo{}, zap.NewNop())
	s.Register(job, "")

	done := make(chan error, 1)
	go func() {
		_, err := s.RunNow(context.Background(), "fake")
		done <- err
	}()
	<-job.started

	_, err := s.RunNow(context.Background(), "fake")
	assert.ErrorIs(t, err, ErrJobRunning)

	close(job.release)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("first run never finished")
	}
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := newCronService(&MockJobRunRepo{}, zap.NewNop())
	s.Register(&fakeJob{}, "every tuesday")

	assert.Error(t, s.InitializeScheduler(context.Background()))
}

func TestListJobsShowsNextAndLastRun(t *testing.T) {
	repo := &MockJobRunRepo{}
	s := newCronService(repo, zap.NewNop())
	s.Register(&fakeJob{}, "30 2 * * *")
	require.NoError(t, s.InitializeScheduler(context.Background()))
	t.Cleanup(func() { _ = s.StopScheduler() })

	_, err := s.RunNow(context.Background(), "fake")
	require.NoError(t, err)

	jobs, err := s.ListJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "30 2 * * *", jobs[0].Schedule)
	require.NotNil(t, jobs[0].LastRun)
	assert.Equal(t, TriggerManual, jobs[0].LastRun.Trigger)
}
