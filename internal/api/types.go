package api

import "orderdesk/pkg/models"

// Health is the body of GET /api/health.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type orderList struct {
	Orders []models.Order `json:"orders"`
	Count  int            `json:"count"`
}

type orderEnvelope struct {
	Message string        `json:"message"`
	Order   *models.Order `json:"order"`
}

// UploadResult is the body of POST /api/upload. An empty TaskID means the
// server processed the document synchronously.
type UploadResult struct {
	Message          string        `json:"message"`
	OrderID          int64         `json:"order_id"`
	OrderNumber      string        `json:"order_number"`
	TaskID           string        `json:"task_id"`
	ProcessingStatus string        `json:"processing_status"`
	Order            *models.Order `json:"order"`
}

// TaskStatus is the body of GET /api/tasks/{id}.
type TaskStatus struct {
	State  string `json:"state"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// JobState maps the raw task state onto the client's job lifecycle.
func (t TaskStatus) JobState() models.JobState {
	return models.ParseJobState(t.State)
}

type errorBody struct {
	Error string `json:"error"`
}
