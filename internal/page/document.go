// Package page holds the document a host renders: alert regions, forms,
// the resume list and job results. Components mutate it; hosts read
// snapshots of it.
package page

import (
	"sync"

	"github.com/justsurfingit/jobhunter/internal/models"
)

type Region int

const (
	RegionBody Region = iota
	RegionMain
)

// ResumePlaceholder is shown when the backend reports no resumes.
const ResumePlaceholder = "No resumes uploaded yet."

type ResumeItem struct {
	Filename string
	Uploaded string
}

type ResumeList struct {
	Loaded      bool
	Items       []ResumeItem
	Placeholder string
}

// Document is safe for concurrent use. Alert timers fire on their own
// goroutines.
type Document struct {
	mu sync.RWMutex

	hasMain    bool
	mainAlerts []models.AlertMessage
	bodyAlerts []models.AlertMessage

	forms map[string]*Form

	resumes       ResumeList
	uploadVisible bool

	jobs      []models.JobPosting
	lastQuery models.SearchQuery
}

// New returns a document. withMain reports whether the page has a main
// container for alerts.
func New(withMain bool) *Document {
	return &Document{
		hasMain: withMain,
		forms:   make(map[string]*Form),
	}
}

// AlertTarget is the main container when present, else the body.
func (d *Document) AlertTarget() Region {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.hasMain {
		return RegionMain
	}
	return RegionBody
}

// PrependAlert inserts the alert as the first child of the region.
func (d *Document) PrependAlert(r Region, a models.AlertMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r == RegionMain {
		d.mainAlerts = append([]models.AlertMessage{a}, d.mainAlerts...)
		return
	}
	d.bodyAlerts = append([]models.AlertMessage{a}, d.bodyAlerts...)
}

// RemoveAlert reports whether an alert with id was present.
func (d *Document) RemoveAlert(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	var ok bool
	d.mainAlerts, ok = without(d.mainAlerts, id)
	if ok {
		return true
	}
	d.bodyAlerts, ok = without(d.bodyAlerts, id)
	return ok
}

func without(list []models.AlertMessage, id string) ([]models.AlertMessage, bool) {
	for i, a := range list {
		if a.ID == id {
			return append(list[:i:i], list[i+1:]...), true
		}
	}
	return list, false
}

// Alerts returns the alerts of a region, newest first.
func (d *Document) Alerts(r Region) []models.AlertMessage {
	d.mu.RLock()
	defer d.mu.RUnlock()
	src := d.bodyAlerts
	if r == RegionMain {
		src = d.mainAlerts
	}
	return append([]models.AlertMessage(nil), src...)
}

// AllAlerts returns main container alerts followed by body alerts.
func (d *Document) AllAlerts() []models.AlertMessage {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.AlertMessage, 0, len(d.mainAlerts)+len(d.bodyAlerts))
	out = append(out, d.mainAlerts...)
	return append(out, d.bodyAlerts...)
}

// AddForm registers a form, replacing any form with the same id.
func (d *Document) AddForm(f *Form) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.forms[f.ID] = f
}

func (d *Document) Form(id string) (*Form, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	f, ok := d.forms[id]
	return f, ok
}

func (d *Document) SetResumes(items []ResumeItem) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resumes = ResumeList{Loaded: true, Items: items}
	if len(items) == 0 {
		d.resumes.Placeholder = ResumePlaceholder
	}
}

func (d *Document) Resumes() ResumeList {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rl := d.resumes
	rl.Items = append([]ResumeItem(nil), rl.Items...)
	return rl
}

// ToggleUploadForm flips the upload section and returns the new visibility.
func (d *Document) ToggleUploadForm() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.uploadVisible = !d.uploadVisible
	return d.uploadVisible
}

func (d *Document) UploadFormVisible() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.uploadVisible
}

func (d *Document) SetJobs(q models.SearchQuery, jobs []models.JobPosting) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastQuery = q
	d.jobs = jobs
}

func (d *Document) Jobs() (models.SearchQuery, []models.JobPosting) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastQuery, append([]models.JobPosting(nil), d.jobs...)
}

// Snapshot is a read-only copy of the document for rendering.
type Snapshot struct {
	HasMain       bool
	MainAlerts    []models.AlertMessage
	BodyAlerts    []models.AlertMessage
	Forms         map[string]FormSnapshot
	Resumes       ResumeList
	UploadVisible bool
	Query         models.SearchQuery
	Jobs          []models.JobPosting
}

func (d *Document) Snapshot() Snapshot {
	d.mu.RLock()
	s := Snapshot{
		HasMain:       d.hasMain,
		MainAlerts:    append([]models.AlertMessage(nil), d.mainAlerts...),
		BodyAlerts:    append([]models.AlertMessage(nil), d.bodyAlerts...),
		UploadVisible: d.uploadVisible,
		Query:         d.lastQuery,
		Jobs:          append([]models.JobPosting(nil), d.jobs...),
		Forms:         make(map[string]FormSnapshot, len(d.forms)),
	}
	s.Resumes = d.resumes
	s.Resumes.Items = append([]ResumeItem(nil), d.resumes.Items...)
	forms := make([]*Form, 0, len(d.forms))
	for _, f := range d.forms {
		forms = append(forms, f)
	}
	d.mu.RUnlock()

	for _, f := range forms {
		s.Forms[f.ID] = f.Snapshot()
	}
	return s
}
