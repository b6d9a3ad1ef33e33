package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskFollowUpCallDue = "followup.call.due"

type FollowUpCallPayload struct {
	CallID   string `json:"callId"`
	TenantID string `json:"tenantId"`
}

func NewFollowUpCallTask(payload FollowUpCallPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpCallDue, data), nil
}

func ParseFollowUpCallPayload(task *asynq.Task) (FollowUpCallPayload, error) {
	var payload FollowUpCallPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpCallPayload{}, err
	}
	return payload, nil
}
