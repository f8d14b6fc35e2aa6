package cron_feature

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-travel/internal/common/errs"
	"go-travel/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ErrJobRunning = errors.New("job already running")

var jobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "travel",
	Subsystem: "cron",
	Name:      "job_runs_total",
	Help:      "Maintenance job executions by job and status.",
}, []string{"job", "status"})

type CronService interface {
	InitializeScheduler(ctx context.Context) error
	StopScheduler() error
	ListJobs(ctx context.Context) ([]JobInfo, error)
	RunNow(ctx context.Context, name string) (*JobRun, error)
	GetJobLogs(ctx context.Context, name string, limit int) ([]JobRun, error)
}

type registeredJob struct {
	job      Job
	schedule string
}

type CronServiceImpl struct {
	repo   JobRunRepository
	logger *zap.Logger

	mu         sync.Mutex
	jobs       map[string]registeredJob
	scheduler  *cron.Cron
	jobEntries map[string]cron.EntryID
	running    map[string]bool

	Now func() time.Time
}

func NewCronService(repo JobRunRepository, sweep *ConsistencySweep, cfg *config.Config, logger *zap.Logger) CronService {
	s := newCronService(repo, logger)
	s.Register(sweep, cfg.ConsistencySweepSchedule)
	return s
}

func newCronService(repo JobRunRepository, logger *zap.Logger) *CronServiceImpl {
	return &CronServiceImpl{
		repo:       repo,
		logger:     logger.Named("cron"),
		jobs:       make(map[string]registeredJob),
		jobEntries: make(map[string]cron.EntryID),
		running:    make(map[string]bool),
		Now:        time.Now,
	}
}

// Register adds a job. An empty schedule keeps it manual-only.
func (s *CronServiceImpl) Register(job Job, schedule string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.Name()] = registeredJob{job: job, schedule: schedule}
}

func (s *CronServiceImpl) InitializeScheduler(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scheduler = cron.New()
	for name, rj := range s.jobs {
		if rj.schedule == "" {
			continue
		}
		if _, err := cron.ParseStandard(rj.schedule); err != nil {
			return fmt.Errorf("invalid schedule %q for %s: %w", rj.schedule, name, err)
		}

		jobName := name
		entryID, err := s.scheduler.AddFunc(rj.schedule, func() {
			if _, err := s.execute(context.Background(), jobName, TriggerSchedule); err != nil && !errors.Is(err, ErrJobRunning) {
				s.logger.Error("Scheduled job failed", zap.String("job", jobName), zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("failed to add %s to scheduler: %w", name, err)
		}
		s.jobEntries[name] = entryID
		s.logger.Info("Scheduled job", zap.String("job", name), zap.String("schedule", rj.schedule))
	}

	s.scheduler.Start()
	return nil
}

func (s *CronServiceImpl) StopScheduler() error {
	s.mu.Lock()
	scheduler := s.scheduler
	s.mu.Unlock()

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	return nil
}

func (s *CronServiceImpl) ListJobs(ctx context.Context) ([]JobInfo, error) {
	s.mu.Lock()
	infos := make([]JobInfo, 0, len(s.jobs))
	for name, rj := range s.jobs {
		info := JobInfo{Name: name, Schedule: rj.schedule}
		if id, ok := s.jobEntries[name]; ok && s.scheduler != nil {
			if next := s.scheduler.Entry(id).Next; !next.IsZero() {
				info.Next = &next
			}
		}
		infos = append(infos, info)
	}
	s.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	for i := range infos {
		runs, err := s.repo.Recent(ctx, infos[i].Name, 1)
		if err != nil {
			return nil, errs.Persistence(err, "recent job runs")
		}
		if len(runs) > 0 {
			infos[i].LastRun = &runs[0]
		}
	}
	return infos, nil
}

func (s *CronServiceImpl) RunNow(ctx context.Context, name string) (*JobRun, error) {
	return s.execute(ctx, name, TriggerManual)
}

func (s *CronServiceImpl) GetJobLogs(ctx context.Context, name string, limit int) ([]JobRun, error) {
	s.mu.Lock()
	_, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("job %q: %w", name, errs.ErrNotFound)
	}

	runs, err := s.repo.Recent(ctx, name, limit)
	if err != nil {
		return nil, errs.Persistence(err, "job logs")
	}
	return runs, nil
}

// execute runs a job at most once at a time and records the run.
func (s *CronServiceImpl) execute(ctx context.Context, name string, trigger Trigger) (*JobRun, error) {
	s.mu.Lock()
	rj, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("job %q: %w", name, errs.ErrNotFound)
	}
	if s.running[name] {
		s.mu.Unlock()
		return nil, ErrJobRunning
	}
	s.running[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, name)
		s.mu.Unlock()
	}()

	run := &JobRun{Job: name, Trigger: trigger, StartedAt: s.Now().UTC()}
	result, err := rj.job.Run(ctx)
	run.JobResult = result
	run.FinishedAt = s.Now().UTC()
	run.Status = RunSucceeded
	if err != nil {
		run.Status = RunFailed
		run.Error = err.Error()
	}
	jobRunsTotal.WithLabelValues(name, string(run.Status)).Inc()

	s.logger.Info("Job finished",
		zap.String("job", name),
		zap.String("trigger", string(trigger)),
		zap.String("status", string(run.Status)),
		zap.Int("scanned", result.Scanned),
		zap.Int("corrected", result.Corrected),
		zap.Int("failed", result.Failed),
		zap.Duration("took", run.FinishedAt.Sub(run.StartedAt)),
	)

	if cerr := s.repo.Create(context.WithoutCancel(ctx), run); cerr != nil {
		s.logger.Warn("Failed to record job run", zap.String("job", name), zap.Error(cerr))
	}
	return run, err
}
