package models

import (
	"net/url"
	"time"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// AlertMessage is a transient banner shown to the user.
type AlertMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchQuery is forwarded to the backend verbatim.
type SearchQuery = url.Values

type JobPosting struct {
	Title     string `json:"title"`
	Company   string `json:"company,omitempty"`
	Location  string `json:"location,omitempty"`
	Link      string `json:"link"`
	Published string `json:"published,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Source    string `json:"source,omitempty"`
}

type UploadState int

const (
	UploadIdle UploadState = iota
	UploadSubmitting
	UploadSuccess
	UploadFailed
)

func (s UploadState) String() string {
	switch s {
	case UploadSubmitting:
		return "submitting"
	case UploadSuccess:
		return "success"
	case UploadFailed:
		return "failed"
	default:
		return "idle"
	}
}
