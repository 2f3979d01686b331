package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/justsurfingit/jobhunter/internal/models"
	"github.com/justsurfingit/jobhunter/internal/page"
)

type recordingAlerter struct {
	shown []models.AlertMessage
}

func (r *recordingAlerter) Show(text string, severity models.Severity) models.AlertMessage {
	a := models.AlertMessage{Text: text, Severity: severity}
	r.shown = append(r.shown, a)
	return a
}

func (r *recordingAlerter) last() models.AlertMessage {
	if len(r.shown) == 0 {
		return models.AlertMessage{}
	}
	return r.shown[len(r.shown)-1]
}

func flagged(f *page.Form) map[string]bool {
	out := make(map[string]bool)
	for _, fld := range f.Snapshot().Fields {
		if fld.Invalid {
			out[fld.Name] = true
		}
	}
	return out
}

func TestValidate_FlagsExactlyEmptyFields(t *testing.T) {
	alerts := &recordingAlerter{}
	v := NewFormValidator(alerts)
	f := page.NewResumeUploadForm()
	f.Set("candidate_name", "   ")
	f.Set("candidate_email", "ada@example.com")

	if v.Validate(f) {
		t.Fatal("expected form to be invalid")
	}

	got := flagged(f)
	if len(got) != 2 || !got["candidate_name"] || !got["file"] {
		t.Errorf("expected candidate_name and file flagged, got %v", got)
	}

	a := alerts.last()
	if a.Text != RequiredFieldsMessage || a.Severity != models.SeverityError {
		t.Errorf("unexpected alert %+v", a)
	}
}

func TestValidate_OptionalFieldsIgnored(t *testing.T) {
	v := NewFormValidator(&recordingAlerter{})
	f := page.NewJobSearchForm()
	f.Set("keywords", "golang")

	if !v.Validate(f) {
		t.Error("expected form with blank optional field to be valid")
	}
}

func TestValidate_ClearsPreviousFlags(t *testing.T) {
	alerts := &recordingAlerter{}
	v := NewFormValidator(alerts)
	f := page.NewApplyForm()

	if v.Validate(f) {
		t.Fatal("expected empty form to be invalid")
	}
	if len(flagged(f)) != 2 {
		t.Fatalf("expected both fields flagged, got %v", flagged(f))
	}

	f.Set("job_id", "42")
	f.Set("resume", "cv.pdf")
	if !v.Validate(f) {
		t.Fatal("expected populated form to be valid")
	}
	if got := flagged(f); len(got) != 0 {
		t.Errorf("expected flags to be cleared, got %v", got)
	}
	if len(alerts.shown) != 1 {
		t.Errorf("expected only the first submission to alert, got %d alerts", len(alerts.shown))
	}
}

func TestSubmit_BlocksInvalid(t *testing.T) {
	v := NewFormValidator(NewAlertService(page.New(true), time.Minute))
	called := false

	ok, err := v.Submit(context.Background(), page.NewApplyForm(), func(context.Context, *page.Form) error {
		called = true
		return nil
	})
	if ok || err != nil || called {
		t.Errorf("expected submission to be blocked, got ok=%v err=%v called=%v", ok, err, called)
	}
}

func TestSubmit_ProceedsWhenValid(t *testing.T) {
	v := NewFormValidator(&recordingAlerter{})
	f := page.NewApplyForm()
	f.Set("job_id", "1")
	f.Set("resume", "cv.pdf")
	boom := errors.New("boom")

	ok, err := v.Submit(context.Background(), f, func(context.Context, *page.Form) error {
		return boom
	})
	if !ok {
		t.Error("expected submission to proceed")
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected submit error to be returned, got %v", err)
	}
}
