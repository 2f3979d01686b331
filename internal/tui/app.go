// Package tui renders the JobHunter document in a terminal. It drives the
// same components as the web host.
package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/justsurfingit/jobhunter/internal/models"
	"github.com/justsurfingit/jobhunter/internal/page"
	"github.com/justsurfingit/jobhunter/internal/services"
)

const tickInterval = 250 * time.Millisecond

type API interface {
	services.ResumeAPI
	services.JobAPI
}

type screen int

const (
	screenResumes screen = iota
	screenJobs
)

var (
	uploadFields = []string{"candidate_name", "candidate_email", "file"}
	searchFields = []string{"keywords", "location"}
)

type Model struct {
	ctx       context.Context
	doc       *page.Document
	alerts    *services.AlertService
	validator *services.FormValidator
	resumes   *services.ResumeService
	jobs      *services.JobService

	screen       screen
	uploadInputs []textinput.Model
	searchInputs []textinput.Model
	focus        int
	busy         bool
	width        int

	readFile func(string) ([]byte, error)
}

func NewModel(ctx context.Context, api API, alertTTL time.Duration, loc *time.Location) Model {
	doc := page.NewStandard()
	alerts := services.NewAlertService(doc, alertTTL)
	return Model{
		ctx:          ctx,
		doc:          doc,
		alerts:       alerts,
		validator:    services.NewFormValidator(alerts),
		resumes:      services.NewResumeService(api, doc, alerts, loc),
		jobs:         services.NewJobService(api, doc, alerts),
		uploadInputs: newInputs(page.NewResumeUploadForm(), map[string]string{"file": "path/to/resume.pdf"}),
		searchInputs: newInputs(page.NewJobSearchForm(), map[string]string{"keywords": "golang, remote"}),
		readFile:     os.ReadFile,
	}
}

func newInputs(f *page.Form, placeholders map[string]string) []textinput.Model {
	var inputs []textinput.Model
	for _, fld := range f.Snapshot().Fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholders[fld.Name]
		if ti.Placeholder == "" {
			ti.Placeholder = fld.Label
		}
		ti.CharLimit = 256
		inputs = append(inputs, ti)
	}
	return inputs
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadResumes(), tick())
}

func (m Model) loadResumes() tea.Cmd {
	return func() tea.Msg {
		return resumesLoadedMsg{err: m.resumes.LoadResumes(m.ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		// alerts expire on their own timers; re-render to reflect that
		return m, tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case resumesLoadedMsg, searchDoneMsg:
		m.busy = false
		return m, nil

	case uploadDoneMsg:
		m.busy = false
		if msg.err == nil {
			for i := range m.uploadInputs {
				m.uploadInputs[i].SetValue("")
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) activeInputs() []textinput.Model {
	if m.screen == screenJobs {
		return m.searchInputs
	}
	if m.doc.UploadFormVisible() {
		return m.uploadInputs
	}
	return nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	inputs := m.activeInputs()

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		if m.screen == screenResumes {
			m.screen = screenJobs
		} else {
			m.screen = screenResumes
		}
		return m, m.setFocus(0)
	case "ctrl+r":
		return m, m.loadResumes()
	case "esc":
		if m.screen == screenResumes && m.doc.UploadFormVisible() {
			m.resumes.ToggleUploadForm()
			return m, m.setFocus(0)
		}
		return m, nil
	}

	if len(inputs) == 0 {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "a", "n":
			m.resumes.ToggleUploadForm()
			return m, m.setFocus(0)
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "shift+tab":
		if m.focus > 0 {
			return m, m.setFocus(m.focus - 1)
		}
		return m, nil
	case "down":
		if m.focus < len(inputs)-1 {
			return m, m.setFocus(m.focus + 1)
		}
		return m, nil
	case "enter":
		if m.busy {
			return m, nil
		}
		if m.screen == screenJobs {
			return m.submitSearch()
		}
		return m.submitUpload()
	}

	var cmd tea.Cmd
	inputs[m.focus], cmd = inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.focus = i
	for j := range m.uploadInputs {
		m.uploadInputs[j].Blur()
	}
	for j := range m.searchInputs {
		m.searchInputs[j].Blur()
	}
	inputs := m.activeInputs()
	if i < len(inputs) {
		return inputs[i].Focus()
	}
	return nil
}

func (m Model) submitUpload() (tea.Model, tea.Cmd) {
	form, _ := m.doc.Form(page.FormResumeUpload)
	for i, name := range uploadFields {
		form.Set(name, m.uploadInputs[i].Value())
	}
	path := strings.TrimSpace(m.uploadInputs[2].Value())
	form.SetFile(nil)
	form.Set("file", path)

	if !m.validator.Validate(form) {
		return m, nil
	}

	data, err := m.readFile(path)
	if err != nil {
		m.alerts.Show(services.UploadFailedMessage+": "+err.Error(), models.SeverityError)
		return m, nil
	}
	form.SetFile(&page.File{Field: "file", Filename: filepath.Base(path), Data: data})

	m.busy = true
	ctx, resumes := m.ctx, m.resumes
	return m, func() tea.Msg {
		return uploadDoneMsg{err: resumes.UploadResume(ctx, form)}
	}
}

func (m Model) submitSearch() (tea.Model, tea.Cmd) {
	form, _ := m.doc.Form(page.FormJobSearch)
	for i, name := range searchFields {
		form.Set(name, m.searchInputs[i].Value())
	}
	if !m.validator.Validate(form) {
		return m, nil
	}

	m.busy = true
	ctx, jobs := m.ctx, m.jobs
	return m, func() tea.Msg {
		_, err := jobs.SearchJobs(ctx, form)
		return searchDoneMsg{err: err}
	}
}

func (m Model) View() string {
	var b strings.Builder
	snap := m.doc.Snapshot()

	b.WriteString(titleStyle.Render("JobHunter") + "  ")
	for i, name := range []string{"Resumes", "Jobs"} {
		if screen(i) == m.screen {
			b.WriteString(activeTabStyle.Render(name))
		} else {
			b.WriteString(tabStyle.Render(name))
		}
	}
	b.WriteString("\n\n")

	for _, a := range append(snap.BodyAlerts, snap.MainAlerts...) {
		b.WriteString(alertStyles[string(a.Severity)].Render(a.Text) + "\n")
	}
	if len(snap.BodyAlerts)+len(snap.MainAlerts) > 0 {
		b.WriteString("\n")
	}

	if m.screen == screenJobs {
		m.viewJobs(&b, snap)
	} else {
		m.viewResumes(&b, snap)
	}

	if m.busy {
		b.WriteString("\n" + dimStyle.Render("Working...") + "\n")
	}
	return b.String()
}

func (m Model) viewResumes(b *strings.Builder, snap page.Snapshot) {
	switch {
	case !snap.Resumes.Loaded:
		b.WriteString(dimStyle.Render("Loading resumes...") + "\n")
	case len(snap.Resumes.Items) == 0:
		b.WriteString(dimStyle.Render(snap.Resumes.Placeholder) + "\n")
	default:
		for _, r := range snap.Resumes.Items {
			b.WriteString(filenameStyle.Render(r.Filename) + "  " + dimStyle.Render("Uploaded: "+r.Uploaded) + "\n")
		}
	}
	b.WriteString("\n")

	if !snap.UploadVisible {
		b.WriteString(helpStyle.Render("a add resume  ctrl+r reload  tab jobs  q quit"))
		return
	}
	viewForm(b, snap.Forms[page.FormResumeUpload], m.uploadInputs, m.focus)
	b.WriteString("\n" + helpStyle.Render("↑/↓ move  enter upload  esc close  tab jobs"))
}

func (m Model) viewJobs(b *strings.Builder, snap page.Snapshot) {
	viewForm(b, snap.Forms[page.FormJobSearch], m.searchInputs, m.focus)
	b.WriteString("\n")
	for _, j := range snap.Jobs {
		b.WriteString(jobTitleStyle.Render(j.Title))
		if j.Company != "" {
			b.WriteString("  " + j.Company)
		}
		if j.Location != "" {
			b.WriteString(" · " + j.Location)
		}
		b.WriteString("\n")
		if j.Link != "" {
			b.WriteString("  " + dimStyle.Render(j.Link) + "\n")
		}
	}
	b.WriteString("\n" + helpStyle.Render("↑/↓ move  enter search  tab resumes  ctrl+c quit"))
}

func viewForm(b *strings.Builder, f page.FormSnapshot, inputs []textinput.Model, focus int) {
	for i, fld := range f.Fields {
		if i >= len(inputs) {
			break
		}
		label := fld.Label
		if fld.Required {
			label += " *"
		}
		if fld.Invalid {
			label = invalidStyle.Render(label)
		}
		cursor := "  "
		if i == focus {
			cursor = "> "
		}
		b.WriteString(cursor + label + "\n  " + inputs[i].View() + "\n")
	}
}
