package dtos

import (
	"encoding/json"

	"github.com/justsurfingit/jobhunter/internal/models"
)

type JobListResponse struct {
	Jobs []models.JobPosting `json:"jobs"`
}

// ApplicationResponse is the body of POST /api/apply.
type ApplicationResponse struct {
	Status  string          `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
	Detail  json.RawMessage `json:"detail,omitempty"`
}

func (r ApplicationResponse) DetailMessage() string {
	return ErrorResponse{Detail: r.Detail}.Message()
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
