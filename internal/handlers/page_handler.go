package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobhunter/internal/models"
	"github.com/justsurfingit/jobhunter/internal/page"
)

// maxResumeBytes bounds the file read into memory for one upload.
const maxResumeBytes = 10 << 20

type PageHandler struct {
	Sessions *SessionStore
}

func NewPageHandler(sessions *SessionStore) *PageHandler {
	return &PageHandler{Sessions: sessions}
}

type pageView struct {
	Title    string
	Path     string
	AlertTTL time.Duration
	Page     page.Snapshot
}

// render draws the session document. Forms passed in replace the session's
// copies, so a response shows the values and flags of its own submission.
func (h *PageHandler) render(c *gin.Context, status int, tmpl string, sess *Session, forms ...*page.Form) {
	title := "JobHunter"
	if tmpl == "resumes.html" {
		title = "Resumes · JobHunter"
	}
	snap := sess.Doc.Snapshot()
	for _, f := range forms {
		snap.Forms[f.ID] = f.Snapshot()
	}
	c.HTML(status, tmpl, pageView{
		Title:    title,
		Path:     c.Request.URL.Path,
		AlertTTL: sess.Alerts.TTL,
		Page:     snap,
	})
}

// requestForm fills a private copy of a session form from the request body.
// Concurrent submissions of the same form never see each other's values.
func requestForm(c *gin.Context, sess *Session, id string) *page.Form {
	tmpl, _ := sess.Doc.Form(id)
	form := tmpl.Clone()
	fillForm(c, form)
	return form
}

// Dashboard is GET /
func (h *PageHandler) Dashboard(c *gin.Context) {
	sess := h.Sessions.Get(c)
	h.render(c, http.StatusOK, "index.html", sess)
}

// Resumes is GET /resumes. Loading the page refetches the list.
func (h *PageHandler) Resumes(c *gin.Context) {
	sess := h.Sessions.Get(c)
	_ = sess.Resumes.LoadResumes(c.Request.Context())
	h.render(c, http.StatusOK, "resumes.html", sess)
}

// UploadResume is POST /resumes/upload
func (h *PageHandler) UploadResume(c *gin.Context) {
	sess := h.Sessions.Get(c)
	form := requestForm(c, sess, page.FormResumeUpload)

	if fh, err := c.FormFile("file"); err == nil {
		data, err := readUpload(fh)
		if err != nil {
			slog.Error("failed to read uploaded file", "filename", fh.Filename, "error", err)
			sess.Alerts.Show("Upload failed: "+err.Error(), models.SeverityError)
			h.render(c, http.StatusOK, "resumes.html", sess, form)
			return
		}
		form.SetFile(&page.File{Field: "file", Filename: fh.Filename, Data: data})
	} else {
		form.SetFile(nil)
		form.Set("file", "")
	}

	h.submit(c, sess, form, "resumes.html", sess.Resumes.UploadResume)
}

// ToggleUploadForm is POST /resumes/toggle
func (h *PageHandler) ToggleUploadForm(c *gin.Context) {
	sess := h.Sessions.Get(c)
	sess.Resumes.ToggleUploadForm()
	h.render(c, http.StatusOK, "resumes.html", sess)
}

// SearchJobs is POST /jobs/search
func (h *PageHandler) SearchJobs(c *gin.Context) {
	sess := h.Sessions.Get(c)
	form := requestForm(c, sess, page.FormJobSearch)
	h.submit(c, sess, form, "index.html", func(ctx context.Context, f *page.Form) error {
		_, err := sess.Jobs.SearchJobs(ctx, f)
		return err
	})
}

// Apply is POST /jobs/apply
func (h *PageHandler) Apply(c *gin.Context) {
	sess := h.Sessions.Get(c)
	form := requestForm(c, sess, page.FormApply)
	h.submit(c, sess, form, "index.html", func(ctx context.Context, f *page.Form) error {
		_, err := sess.Jobs.SubmitApplication(ctx, f)
		return err
	})
}

// submit runs the validator-gated action. Backend failures were already
// turned into alerts, so the page always renders.
func (h *PageHandler) submit(c *gin.Context, sess *Session, form *page.Form, tmpl string, action func(context.Context, *page.Form) error) {
	ok, err := sess.Validator.Submit(c.Request.Context(), form, action)
	if !ok {
		h.render(c, http.StatusUnprocessableEntity, tmpl, sess, form)
		return
	}
	if err != nil {
		slog.Warn("form submission failed", "form", form.ID, "error", err)
	}
	h.render(c, http.StatusOK, tmpl, sess, form)
}

// Alerts is GET /ui/alerts
func (h *PageHandler) Alerts(c *gin.Context) {
	sess := h.Sessions.Get(c)
	c.JSON(http.StatusOK, gin.H{"alerts": sess.Alerts.Active()})
}

// DismissAlert is POST /ui/alerts/:id/dismiss
func (h *PageHandler) DismissAlert(c *gin.Context) {
	sess := h.Sessions.Get(c)
	dismissed := sess.Alerts.Dismiss(c.Param("id"))

	if to := c.PostForm("return_to"); strings.HasPrefix(to, "/") && !strings.HasPrefix(to, "//") {
		c.Redirect(http.StatusSeeOther, to)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dismissed": dismissed})
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "message": "JobHunter web client is running"})
}

func fillForm(c *gin.Context, form *page.Form) {
	for _, f := range form.Snapshot().Fields {
		form.Set(f.Name, c.PostForm(f.Name))
	}
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxResumeBytes {
		return nil, fmt.Errorf("file is larger than %d MB", maxResumeBytes>>20)
	}
	r, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(io.LimitReader(r, maxResumeBytes))
}
