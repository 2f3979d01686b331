package services

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/justsurfingit/jobhunter/internal/backend"
	"github.com/justsurfingit/jobhunter/internal/dtos"
	"github.com/justsurfingit/jobhunter/internal/models"
	"github.com/justsurfingit/jobhunter/internal/page"
)

const (
	UploadSuccessMessage   = "Resume uploaded successfully!"
	UploadFailedMessage    = "Upload failed"
	UnsupportedFileMessage = "Only PDF, DOC, and DOCX files allowed"
	LoadResumesFailed      = "Failed to load resumes"

	// UploadDateLayout matches the en-US short date of a browser.
	UploadDateLayout = "1/2/2006"
)

var (
	ErrNoFile          = errors.New("no file selected")
	ErrUnsupportedFile = errors.New("unsupported resume file type")
)

// accepted content types per extension, as sniffed by mimetype
var resumeTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
}

type ResumeAPI interface {
	ListResumes(ctx context.Context) (*dtos.ResumeListResponse, error)
	UploadResume(ctx context.Context, fields url.Values, file backend.FilePart) (*dtos.UploadResponse, error)
}

// ResumeService lists and uploads resumes and keeps the resume region of
// the document in sync.
type ResumeService struct {
	API      ResumeAPI
	Doc      *page.Document
	Alerts   Alerter
	Location *time.Location

	// OnStateChange, when set, is called on every upload state transition.
	OnStateChange func(models.UploadState)

	mu    sync.Mutex
	state models.UploadState
}

func NewResumeService(api ResumeAPI, doc *page.Document, alerts Alerter, loc *time.Location) *ResumeService {
	if loc == nil {
		loc = time.Local
	}
	return &ResumeService{
		API:      api,
		Doc:      doc,
		Alerts:   alerts,
		Location: loc,
	}
}

// State is the state of the most recent upload attempt.
func (s *ResumeService) State() models.UploadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ResumeService) setState(st models.UploadState) {
	s.mu.Lock()
	s.state = st
	hook := s.OnStateChange
	s.mu.Unlock()
	if hook != nil {
		hook(st)
	}
}

// LoadResumes refreshes the resume list from the backend. On failure the
// previous list stays on the page.
func (s *ResumeService) LoadResumes(ctx context.Context) error {
	resp, err := s.API.ListResumes(ctx)
	if err != nil {
		slog.Error("Failed to load resumes", "error", err)
		s.Alerts.Show(LoadResumesFailed+": "+err.Error(), models.SeverityError)
		return err
	}

	items := make([]page.ResumeItem, 0, len(resp.Resumes))
	for _, r := range resp.Resumes {
		items = append(items, page.ResumeItem{
			Filename: r.Filename,
			Uploaded: r.UploadedAt().In(s.Location).Format(UploadDateLayout),
		})
	}
	s.Doc.SetResumes(items)
	return nil
}

// UploadResume sends the upload form to the backend. A successful upload
// resets the form and reloads the resume list once.
func (s *ResumeService) UploadResume(ctx context.Context, form *page.Form) error {
	s.setState(models.UploadSubmitting)

	file := form.File()
	if file == nil || len(file.Data) == 0 {
		s.fail(UploadFailedMessage + ": " + ErrNoFile.Error())
		return ErrNoFile
	}

	contentType, err := checkResumeFile(file.Filename, file.Data)
	if err != nil {
		s.fail(UnsupportedFileMessage)
		return err
	}

	_, err = s.API.UploadResume(ctx, url.Values(form.Values()), backend.FilePart{
		Field:       "file",
		Filename:    file.Filename,
		ContentType: contentType,
		Data:        file.Data,
	})
	if err != nil {
		slog.Error("resume upload failed", "filename", file.Filename, "error", err)
		s.fail(failureText(err, UploadFailedMessage))
		return err
	}

	slog.Info("resume uploaded", "filename", file.Filename)
	s.Alerts.Show(UploadSuccessMessage, models.SeveritySuccess)
	form.Reset()
	s.setState(models.UploadSuccess)
	_ = s.LoadResumes(ctx)
	s.setState(models.UploadIdle)
	return nil
}

func (s *ResumeService) fail(text string) {
	s.Alerts.Show(text, models.SeverityError)
	s.setState(models.UploadFailed)
	s.setState(models.UploadIdle)
}

// ToggleUploadForm flips the upload section and returns its visibility.
func (s *ResumeService) ToggleUploadForm() bool {
	return s.Doc.ToggleUploadForm()
}

// checkResumeFile accepts the extensions the backend stores and requires the
// sniffed content to match. It returns the content type to send.
func checkResumeFile(name string, data []byte) (string, error) {
	allowed, ok := resumeTypes[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return "", ErrUnsupportedFile
	}
	mt := mimetype.Detect(data)
	for _, ct := range allowed {
		if mt.Is(ct) {
			return mt.String(), nil
		}
	}
	return "", ErrUnsupportedFile
}
