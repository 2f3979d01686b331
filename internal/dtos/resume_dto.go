package dtos

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// ResumeEntry is one element of GET /api/resumes.
type ResumeEntry struct {
	Filename   string  `json:"filename"`
	UploadTime float64 `json:"upload_time"` // epoch seconds, may be fractional
}

func (e ResumeEntry) UploadedAt() time.Time {
	sec, frac := math.Modf(e.UploadTime)
	return time.Unix(int64(sec), int64(frac*1e9))
}

type ResumeListResponse struct {
	Resumes []ResumeEntry `json:"resumes"`
}

// ErrorResponse is the failure body of the backend. Detail is either a
// plain string or a list of validation errors.
type ErrorResponse struct {
	Detail json.RawMessage `json:"detail,omitempty"`
}

// Message returns the server-provided message, or "" if there is none.
func (r ErrorResponse) Message() string {
	if len(r.Detail) == 0 || string(r.Detail) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(r.Detail, &items); err == nil {
		var msgs []string
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// UploadResponse is the success body of POST /api/upload-resume. Every
// field is optional.
type UploadResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
	SavedAs  string `json:"saved_as"`
}
