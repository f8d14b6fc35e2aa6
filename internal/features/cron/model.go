package cron_feature

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
)

type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// JobResult is what one execution of a job reports.
type JobResult struct {
	Scanned   int `json:"scanned" bson:"scanned"`
	Corrected int `json:"corrected" bson:"corrected"`
	Failed    int `json:"failed" bson:"failed"`
}

// JobRun is the persisted record of one execution.
type JobRun struct {
	ID      primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Job     string             `json:"job" bson:"job"`
	Trigger Trigger            `json:"trigger" bson:"trigger"`
	Status  RunStatus          `json:"status" bson:"status"`

	JobResult `bson:",inline"`

	Error      string    `json:"error,omitempty" bson:"error,omitempty"`
	StartedAt  time.Time `json:"started_at" bson:"started_at"`
	FinishedAt time.Time `json:"finished_at" bson:"finished_at"`
}

// JobInfo describes a registered job for the admin listing.
type JobInfo struct {
	Name     string     `json:"name"`
	Schedule string     `json:"schedule"`
	Next     *time.Time `json:"next,omitempty"`
	LastRun  *JobRun    `json:"last_run,omitempty"`
}
