package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeArchive snapshots a submitted assessment to object storage and renders
// its scorecard.
const TypeArchive = "assessment:archive"

type ArchivePayload struct {
	AssessmentID string `json:"assessment_id"`
}

func NewArchiveTask(assessmentID string) (*asynq.Task, error) {
	b, err := json.Marshal(ArchivePayload{AssessmentID: assessmentID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeArchive, b, asynq.MaxRetry(3)), nil
}

func parseArchivePayload(t *asynq.Task) (ArchivePayload, error) {
	var p ArchivePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", t.Type(), err)
	}
	if p.AssessmentID == "" {
		return p, fmt.Errorf("%s payload has no assessment_id", t.Type())
	}
	return p, nil
}

// Enqueuer puts archive jobs on the asynq queue.
type Enqueuer struct {
	Client *asynq.Client
}

func (e *Enqueuer) EnqueueArchive(ctx context.Context, assessmentID string) error {
	task, err := NewArchiveTask(assessmentID)
	if err != nil {
		return err
	}
	if _, err := e.Client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s for %s: %w", TypeArchive, assessmentID, err)
	}
	return nil
}
