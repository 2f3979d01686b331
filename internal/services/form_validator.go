package services

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/justsurfingit/jobhunter/internal/models"
	"github.com/justsurfingit/jobhunter/internal/page"
)

const RequiredFieldsMessage = "Please fill in all required fields."

// FormValidator gates form submission on required fields.
type FormValidator struct {
	Alerts   Alerter
	validate *validator.Validate
}

func NewFormValidator(alerts Alerter) *FormValidator {
	return &FormValidator{
		Alerts:   alerts,
		validate: validator.New(),
	}
}

// Validate flags every required field that is blank after trimming and
// clears the flag on the others. An invalid form raises an error alert.
func (v *FormValidator) Validate(f *page.Form) bool {
	valid := true
	f.Each(func(fld *page.Field) {
		if !fld.Required {
			return
		}
		if err := v.validate.Var(strings.TrimSpace(fld.Value), "required"); err != nil {
			fld.Invalid = true
			valid = false
			return
		}
		fld.Invalid = false
	})

	if !valid {
		v.Alerts.Show(RequiredFieldsMessage, models.SeverityError)
	}
	return valid
}

// Submit runs submit only when the form is valid. The boolean reports
// whether the submission went ahead.
func (v *FormValidator) Submit(ctx context.Context, f *page.Form, submit func(context.Context, *page.Form) error) (bool, error) {
	if !v.Validate(f) {
		return false, nil
	}
	return true, submit(ctx, f)
}
