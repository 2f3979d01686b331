package page

const (
	FormResumeUpload = "resume-upload-form"
	FormJobSearch    = "job-search-form"
	FormApply        = "apply-form"
)

func NewResumeUploadForm() *Form {
	return NewForm(FormResumeUpload,
		Field{Name: "candidate_name", Label: "Full name", Required: true},
		Field{Name: "candidate_email", Label: "Email", Required: true},
		Field{Name: "file", Label: "Resume file", Required: true},
	)
}

func NewJobSearchForm() *Form {
	return NewForm(FormJobSearch,
		Field{Name: "keywords", Label: "Keywords", Required: true},
		Field{Name: "location", Label: "Location"},
	)
}

func NewApplyForm() *Form {
	return NewForm(FormApply,
		Field{Name: "job_id", Label: "Job", Required: true},
		Field{Name: "resume", Label: "Resume", Required: true},
	)
}

// NewStandard returns a document with a main container and the upload,
// search and apply forms.
func NewStandard() *Document {
	d := New(true)
	d.AddForm(NewResumeUploadForm())
	d.AddForm(NewJobSearchForm())
	d.AddForm(NewApplyForm())
	return d
}
