package models

import (
	"fmt"
	"time"

	"github.com/guregu/null/v6"
)

// This file contains the models that flow through a single batch run

// Record is a single item read from the source and handed to the writer
type Record struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

func (r Record) String() string {
	return fmt.Sprintf("Record(id=%d, name=%s)", r.ID, r.Name)
}

type RunStatus string

const (
	RsRunning   RunStatus = "running"
	RsCompleted RunStatus = "completed"
	RsFailed    RunStatus = "failed"
)

// IsFinal returns true once the run can no longer change status
func (s RunStatus) IsFinal() bool {
	return s == RsCompleted || s == RsFailed
}

// JobRun refers to a single launch of the batch job. It is created when a tick launches the job
// and becomes final when the orchestrator returns.
type JobRun struct {
	ID         string      `json:"id"`
	JobName    string      `json:"job_name"`
	LaunchTime time.Time   `json:"launch_time"`
	Status     RunStatus   `json:"status"`
	EndTime    null.Time   `json:"end_time"`
	Error      null.String `json:"error"`
	ReadCount  int         `json:"read_count"`
	WriteCount int         `json:"write_count"`
	ChunkCount int         `json:"chunk_count"`
}

// Duration returns how long the run took. Runs that have not ended report zero.
func (j *JobRun) Duration() time.Duration {
	if !j.EndTime.Valid {
		return 0
	}
	return j.EndTime.Time.Sub(j.LaunchTime)
}
