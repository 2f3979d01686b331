package services

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/justsurfingit/jobhunter/internal/dtos"
	"github.com/justsurfingit/jobhunter/internal/models"
	"github.com/justsurfingit/jobhunter/internal/page"
)

const (
	SearchingMessage            = "Searching for jobs..."
	NoJobsMessage               = "No jobs found."
	SearchFailedMessage         = "Job search failed"
	ApplicationSubmittedMessage = "Application submitted."
	ApplicationFailedMessage    = "Application failed"
)

type JobAPI interface {
	GetJobs(ctx context.Context, query url.Values) (*dtos.JobListResponse, error)
	SubmitApplication(ctx context.Context, fields url.Values) (*dtos.ApplicationResponse, error)
}

type JobService struct {
	API    JobAPI
	Doc    *page.Document
	Alerts Alerter
}

func NewJobService(api JobAPI, doc *page.Document, alerts Alerter) *JobService {
	return &JobService{
		API:    api,
		Doc:    doc,
		Alerts: alerts,
	}
}

// SearchJobs forwards the search form fields to the backend and renders
// the postings it returns.
func (s *JobService) SearchJobs(ctx context.Context, form *page.Form) ([]models.JobPosting, error) {
	query := models.SearchQuery(form.Values())
	slog.Info("Searching jobs", "query", query.Encode())
	s.Alerts.Show(SearchingMessage, models.SeverityInfo)

	resp, err := s.API.GetJobs(ctx, query)
	if err != nil {
		slog.Error("Error fetching jobs", "error", err)
		s.Alerts.Show(failureText(err, SearchFailedMessage), models.SeverityError)
		return nil, err
	}

	s.Doc.SetJobs(query, resp.Jobs)
	if len(resp.Jobs) == 0 {
		s.Alerts.Show(NoJobsMessage, models.SeverityInfo)
	}
	return resp.Jobs, nil
}

// SubmitApplication posts the apply form and returns the backend result.
func (s *JobService) SubmitApplication(ctx context.Context, form *page.Form) (*dtos.ApplicationResponse, error) {
	resp, err := s.API.SubmitApplication(ctx, url.Values(form.Values()))
	if err != nil {
		slog.Error("Error submitting application", "error", err)
		s.Alerts.Show(failureText(err, ApplicationFailedMessage), models.SeverityError)
		return nil, err
	}

	msg := resp.Message
	if msg == "" {
		msg = resp.DetailMessage()
	}
	if msg == "" {
		msg = ApplicationSubmittedMessage
	}
	s.Alerts.Show(msg, models.SeveritySuccess)
	form.Reset()
	return resp, nil
}
