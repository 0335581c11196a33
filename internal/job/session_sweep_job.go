package job

import (
	"context"
	"time"

	"github.com/xxxsen/payagent/internal/agent"
)

type SessionSweepJob struct {
	sessions       *agent.SessionStore
	maxIdleMinutes int
}

func NewSessionSweepJob(sessions *agent.SessionStore, maxIdleMinutes int) *SessionSweepJob {
	return &SessionSweepJob{sessions: sessions, maxIdleMinutes: maxIdleMinutes}
}

func (j *SessionSweepJob) Name() string {
	return "session_sweep"
}

func (j *SessionSweepJob) Run(ctx context.Context) error {
	if j.sessions == nil {
		return nil
	}
	maxIdleMinutes := j.maxIdleMinutes
	if maxIdleMinutes <= 0 {
		maxIdleMinutes = 60
	}
	j.sessions.Sweep(ctx, time.Duration(maxIdleMinutes)*time.Minute)
	return nil
}
