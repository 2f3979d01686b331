package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobhunter/internal/backend"
	"github.com/justsurfingit/jobhunter/internal/models"
	"github.com/justsurfingit/jobhunter/internal/page"
)

type testApp struct {
	router      *gin.Engine
	sessions    *SessionStore
	listCalls   atomic.Int32
	uploadCalls atomic.Int32
	applyCalls  atomic.Int32
	cookie      *http.Cookie

	// applyGate, when set, holds /api/apply until it is closed
	applyGate    chan struct{}
	applyArrived chan string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := &testApp{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/resumes", func(w http.ResponseWriter, r *http.Request) {
		app.listCalls.Add(1)
		io.WriteString(w, `{"resumes":[{"filename":"cv.pdf","upload_time":1700000000}]}`)
	})
	mux.HandleFunc("/api/upload-resume", func(w http.ResponseWriter, r *http.Request) {
		app.uploadCalls.Add(1)
		io.WriteString(w, `{"status":"success"}`)
	})
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"jobs":[{"title":"Backend Engineer","company":"Startup Inc","link":"https://example.com/2"}]}`)
	})
	mux.HandleFunc("/api/apply", func(w http.ResponseWriter, r *http.Request) {
		app.applyCalls.Add(1)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart body: %v", err)
		}
		jobID := r.FormValue("job_id")
		if app.applyArrived != nil {
			app.applyArrived <- jobID + "/" + r.FormValue("resume")
		}
		if app.applyGate != nil {
			<-app.applyGate
		}
		if jobID == "missing" {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"detail":"Job not found"}`)
			return
		}
		io.WriteString(w, `{"status":"applied"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := backend.New(srv.URL, 0)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	app.sessions = NewSessionStore(func(id string) *Session {
		return NewSession(id, client, time.Minute, time.UTC)
	}, time.Hour)
	app.router = NewRouter(RouterConfig{}, NewPageHandler(app.sessions))
	return app
}

func (a *testApp) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if a.cookie != nil {
		req.AddCookie(a.cookie)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			a.cookie = c
		}
	}
	return w
}

func (a *testApp) postForm(t *testing.T, path string, vals url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(t, req)
}

func uploadRequest(t *testing.T, name, email, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("candidate_name", name)
	w.WriteField("candidate_email", email)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		part.Write(data)
	}
	w.Close()
	req := httptest.NewRequest(http.MethodPost, "/resumes/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestResumesPage_LoadsList(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, httptest.NewRequest(http.MethodGet, "/resumes", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "cv.pdf") || !strings.Contains(body, "Uploaded: 11/14/2023") {
		t.Errorf("expected resume item in page, got:\n%s", body)
	}
	if app.listCalls.Load() != 1 {
		t.Errorf("expected one list call, got %d", app.listCalls.Load())
	}
	if app.cookie == nil {
		t.Error("expected a session cookie")
	}
}

func TestUpload_InvalidFormIsBlocked(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, uploadRequest(t, "", "ada@example.com", "", nil))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if app.uploadCalls.Load() != 0 {
		t.Error("expected no upload request")
	}
	body := w.Body.String()
	if !strings.Contains(body, "Please fill in all required fields.") {
		t.Error("expected validation alert in page")
	}
	if got := strings.Count(body, `class="field-invalid"`); got != 2 {
		t.Errorf("expected 2 flagged fields, got %d", got)
	}
}

func TestUpload_Success(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, uploadRequest(t, "Ada", "ada@example.com", "cv.pdf", []byte("%PDF-1.4\n")))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if app.uploadCalls.Load() != 1 {
		t.Errorf("expected one upload request, got %d", app.uploadCalls.Load())
	}
	if app.listCalls.Load() != 1 {
		t.Errorf("expected one list reload, got %d", app.listCalls.Load())
	}
	body := w.Body.String()
	if !strings.Contains(body, "Resume uploaded successfully!") || !strings.Contains(body, "alert-success") {
		t.Error("expected success alert in page")
	}
	if strings.Contains(body, `value="Ada"`) {
		t.Error("expected upload form to be reset")
	}
}

func TestToggleUploadForm(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, httptest.NewRequest(http.MethodPost, "/resumes/toggle", nil))
	if !strings.Contains(w.Body.String(), "display:block") {
		t.Error("expected upload form to be visible")
	}
	w = app.do(t, httptest.NewRequest(http.MethodPost, "/resumes/toggle", nil))
	if !strings.Contains(w.Body.String(), "display:none") {
		t.Error("expected upload form to be hidden")
	}
	if app.listCalls.Load() != 0 {
		t.Error("toggle must not reload resumes")
	}
}

func TestSearchJobs(t *testing.T) {
	app := newTestApp(t)

	w := app.postForm(t, "/jobs/search", url.Values{"keywords": {"backend"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Backend Engineer") {
		t.Error("expected job results in page")
	}
	if !strings.Contains(body, "Searching for jobs...") {
		t.Error("expected searching alert")
	}
}

func TestAlertsAPI_AndDismiss(t *testing.T) {
	app := newTestApp(t)
	app.postForm(t, "/jobs/apply", url.Values{})

	w := app.do(t, httptest.NewRequest(http.MethodGet, "/ui/alerts", nil))
	var out struct {
		Alerts []models.AlertMessage `json:"alerts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode alerts: %v", err)
	}
	if len(out.Alerts) != 1 || out.Alerts[0].Severity != models.SeverityError {
		t.Fatalf("expected one error alert, got %+v", out.Alerts)
	}

	w = app.postForm(t, "/ui/alerts/"+out.Alerts[0].ID+"/dismiss", url.Values{"return_to": {"/"}})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Errorf("expected redirect to /, got %d %s", w.Code, w.Header().Get("Location"))
	}

	w = app.do(t, httptest.NewRequest(http.MethodGet, "/ui/alerts", nil))
	json.Unmarshal(w.Body.Bytes(), &out)
	if len(out.Alerts) != 0 {
		t.Errorf("expected no alerts after dismiss, got %+v", out.Alerts)
	}
}

func TestDismiss_RejectsExternalReturn(t *testing.T) {
	app := newTestApp(t)

	w := app.postForm(t, "/ui/alerts/nope/dismiss", url.Values{"return_to": {"//evil.example"}})
	if w.Code != http.StatusOK {
		t.Errorf("expected JSON response, got %d", w.Code)
	}
}

func TestSessionSweep(t *testing.T) {
	app := newTestApp(t)
	app.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if app.sessions.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", app.sessions.Len())
	}

	if n := app.sessions.Sweep(time.Now().Add(2 * time.Hour)); n != 1 {
		t.Errorf("expected 1 evicted session, got %d", n)
	}
	if app.sessions.Len() != 0 {
		t.Error("expected no sessions after sweep")
	}
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t)
	w := app.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}

func TestApply_InvalidFormIsBlocked(t *testing.T) {
	app := newTestApp(t)

	w := app.postForm(t, "/jobs/apply", url.Values{"job_id": {"42"}})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if app.applyCalls.Load() != 0 {
		t.Error("expected no apply request")
	}
	body := w.Body.String()
	if !strings.Contains(body, "Please fill in all required fields.") {
		t.Error("expected validation alert in page")
	}
	if got := strings.Count(body, `class="field-invalid"`); got != 1 {
		t.Errorf("expected 1 flagged field, got %d", got)
	}
	if !strings.Contains(body, `value="42"`) {
		t.Error("expected submitted value to be kept in the form")
	}
}

func TestApply_Success(t *testing.T) {
	app := newTestApp(t)

	w := app.postForm(t, "/jobs/apply", url.Values{"job_id": {"42"}, "resume": {"cv.pdf"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if app.applyCalls.Load() != 1 {
		t.Errorf("expected one apply request, got %d", app.applyCalls.Load())
	}
	body := w.Body.String()
	if !strings.Contains(body, "Application submitted.") || strings.Contains(body, `value="42"`) {
		t.Errorf("expected success alert and a reset form, got:\n%s", body)
	}
}

func TestApply_BackendErrorRendersAlert(t *testing.T) {
	app := newTestApp(t)

	w := app.postForm(t, "/jobs/apply", url.Values{"job_id": {"missing"}, "resume": {"cv.pdf"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Job not found") || !strings.Contains(body, "alert-error") {
		t.Errorf("expected backend detail as error alert, got:\n%s", body)
	}
}

func TestApply_ConcurrentSubmissionsKeepTheirValues(t *testing.T) {
	app := newTestApp(t)
	app.applyGate = make(chan struct{})
	app.applyArrived = make(chan string, 2)
	app.do(t, httptest.NewRequest(http.MethodGet, "/", nil))

	done := make(chan int, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/jobs/apply", strings.NewReader(url.Values{"job_id": {"1"}, "resume": {"a.pdf"}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(app.cookie)
		w := httptest.NewRecorder()
		app.router.ServeHTTP(w, req)
		done <- w.Code
	}()
	if got := <-app.applyArrived; got != "1/a.pdf" {
		t.Fatalf("unexpected first submission %q", got)
	}

	// the first request is in flight; a second one from the same session
	// must neither see nor overwrite its values
	w := app.postForm(t, "/jobs/apply", url.Values{"job_id": {"2"}})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected second submission to be blocked, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), `value="1"`) {
		t.Error("expected second response not to show the first submission")
	}

	app.sessions.mu.Lock()
	sess := app.sessions.sessions[app.cookie.Value]
	app.sessions.mu.Unlock()
	form, _ := sess.Doc.Form(page.FormApply)
	if form.Value("job_id") != "" {
		t.Errorf("expected the session form to stay untouched, got %q", form.Value("job_id"))
	}

	close(app.applyGate)
	if code := <-done; code != http.StatusOK {
		t.Errorf("expected first submission to succeed, got %d", code)
	}
}

func TestAlerts_RenderedWithExpiry(t *testing.T) {
	app := newTestApp(t)

	w := app.postForm(t, "/jobs/apply", url.Values{})

	body := w.Body.String()
	if !strings.Contains(body, "@keyframes jh-expire") {
		t.Error("expected expiry keyframes in page")
	}
	if !regexp.MustCompile(`class="alert alert-error"[^>]*style="animation-delay:\s*\d+ms"`).MatchString(body) {
		t.Errorf("expected alert with its own expiry delay, got:\n%s", body)
	}
}

func TestExpireDelay(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		created time.Time
		want    string
	}{
		{now, "5000ms"},
		{now.Add(-2 * time.Second), "3000ms"},
		{now.Add(-time.Minute), "0ms"},
	}
	for _, tt := range tests {
		if got := expireDelay(tt.created, 5*time.Second, now); got != tt.want {
			t.Errorf("expireDelay(%v) = %s, want %s", now.Sub(tt.created), got, tt.want)
		}
	}
}
