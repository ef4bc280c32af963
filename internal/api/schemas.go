package api

import "errors"

type HealthResponse struct {
	Status string `json:"status"`
}

type SchedulerStatus struct {
	Enabled   bool  `json:"enabled"`
	RunCount  int64 `json:"run_count"`
	TickCount int64 `json:"tick_count"`
}

type UpdateSchedulerRequest struct {
	Enabled *bool `json:"enabled"`
}

func (u *UpdateSchedulerRequest) validate() error {
	if u.Enabled == nil {
		return errors.New("enabled is required")
	}
	return nil
}

type CancelResponse struct {
	Cancelled int `json:"cancelled"`
}
