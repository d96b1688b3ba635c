package scheduler

import (
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
)

const TaskPointRegisteredEmail = "points.registered_email"

// PointRegisteredEmailPayload carries everything the worker needs, so the
// worker never reads the database.
type PointRegisteredEmailPayload struct {
	PointID  string `json:"pointId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	City     string `json:"city"`
	UF       string `json:"uf"`
	PointURL string `json:"pointUrl"`
}

func NewPointRegisteredEmailTask(payload PointRegisteredEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPointRegisteredEmail, data), nil
}

func ParsePointRegisteredEmailPayload(task *asynq.Task) (PointRegisteredEmailPayload, error) {
	var payload PointRegisteredEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PointRegisteredEmailPayload{}, err
	}
	if payload.PointID == "" || payload.Email == "" {
		return PointRegisteredEmailPayload{}, errors.New("point registered email payload requires pointId and email")
	}
	return payload, nil
}
