package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeGLIntegrity is the task type for the ledger integrity sweep.
	TaskTypeGLIntegrity = "gl:integrity"
)

// GLIntegrityPayload scopes an integrity sweep. An empty AsOf means today.
type GLIntegrityPayload struct {
	AsOf string `json:"asOf,omitempty"`
}

// NewGLIntegrityTask constructs an Asynq task for the integrity sweep.
func NewGLIntegrityTask(asOf time.Time) (*asynq.Task, error) {
	payload := GLIntegrityPayload{}
	if !asOf.IsZero() {
		payload.AsOf = asOf.Format("2006-01-02")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeGLIntegrity, data), nil
}
