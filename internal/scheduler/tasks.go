package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskSyncSweep re-runs the CRM sync over every unsynced/failed record.
const TaskSyncSweep = "sync.sweep"

// TaskSyncResync re-runs the CRM sync for a single record.
const TaskSyncResync = "sync.resync"

type SyncSweepPayload struct {
	// Kinds restricts the sweep to the named entity kinds; empty means all.
	Kinds []string `json:"kinds,omitempty"`
}

type SyncResyncPayload struct {
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
}

func NewSyncSweepTask(payload SyncSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSyncSweep, data), nil
}

func ParseSyncSweepPayload(task *asynq.Task) (SyncSweepPayload, error) {
	var payload SyncSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SyncSweepPayload{}, err
	}
	return payload, nil
}

func NewSyncResyncTask(payload SyncResyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSyncResync, data), nil
}

func ParseSyncResyncPayload(task *asynq.Task) (SyncResyncPayload, error) {
	var payload SyncResyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SyncResyncPayload{}, err
	}
	return payload, nil
}
