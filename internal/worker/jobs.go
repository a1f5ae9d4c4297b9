package worker

import (
	"context"

	"github.com/avolkhin/fincascade/internal/model"
)

// EpisodeChecker verifies one episode; satisfied by check.Checker.
type EpisodeChecker interface {
	Check(ep model.Episode) model.Episode
}

// CheckJob fact-checks one episode on the pool. StageIndex routes the result
// back to its stage under the single writer that collects pool results.
type CheckJob struct {
	StageIndex   int
	EpisodeIndex int
	Episode      model.Episode
	Checker      EpisodeChecker
}

// Execute verifies the episode. Checking is pure, so cancellation is only
// observed between jobs.
func (j *CheckJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &CheckResult{StageIndex: j.StageIndex, EpisodeIndex: j.EpisodeIndex, Episode: j.Episode, Err: err}
	}
	return &CheckResult{
		StageIndex:   j.StageIndex,
		EpisodeIndex: j.EpisodeIndex,
		Episode:      j.Checker.Check(j.Episode),
	}
}

// CheckResult carries the checked episode back to its stage slot.
type CheckResult struct {
	StageIndex   int
	EpisodeIndex int
	Episode      model.Episode
	Err          error
}

// GetError returns the job error, nil for a completed check.
func (r *CheckResult) GetError() error {
	return r.Err
}
