package page

import "sync"

// Field is one input of a form. Invalid is the visual "flagged" state.
type Field struct {
	Name     string
	Label    string
	Value    string
	Required bool
	Invalid  bool
}

// Form is a set of named fields plus an optional attached file.
type Form struct {
	ID string

	mu     sync.Mutex
	fields []*Field
	file   *File
}

// File is the content of a file input.
type File struct {
	Field    string
	Filename string
	Data     []byte
}

func NewForm(id string, fields ...Field) *Form {
	f := &Form{ID: id}
	for i := range fields {
		fld := fields[i]
		f.fields = append(f.fields, &fld)
	}
	return f
}

// Set assigns a value to an existing field. Unknown names are ignored.
func (f *Form) Set(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fld := range f.fields {
		if fld.Name == name {
			fld.Value = value
			return
		}
	}
}

func (f *Form) Value(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fld := range f.fields {
		if fld.Name == name {
			return fld.Value
		}
	}
	return ""
}

// SetFile attaches a file and records its name as the value of the file
// field, so an empty file input counts as blank.
func (f *Form) SetFile(file *File) {
	f.mu.Lock()
	f.file = file
	f.mu.Unlock()
	if file != nil {
		f.Set(file.Field, file.Filename)
	}
}

func (f *Form) File() *File {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file
}

// Each calls fn for every field while holding the form lock.
func (f *Form) Each(fn func(*Field)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fld := range f.fields {
		fn(fld)
	}
}

// Values returns the non-file field values keyed by name.
func (f *Form) Values() map[string][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]string, len(f.fields))
	for _, fld := range f.fields {
		if f.file != nil && fld.Name == f.file.Field {
			continue
		}
		out[fld.Name] = []string{fld.Value}
	}
	return out
}

// Clone returns an independent copy of the form, values and flags included.
func (f *Form) Clone() *Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &Form{ID: f.ID, file: f.file}
	for _, fld := range f.fields {
		cp := *fld
		c.fields = append(c.fields, &cp)
	}
	return c
}

// Reset clears values, flags and the attached file.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fld := range f.fields {
		fld.Value = ""
		fld.Invalid = false
	}
	f.file = nil
}

type FormSnapshot struct {
	ID     string
	Fields []Field
}

// Field returns the snapshot of a field by name.
func (s FormSnapshot) Field(name string) Field {
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return Field{Name: name}
}

func (f *Form) Snapshot() FormSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := FormSnapshot{ID: f.ID, Fields: make([]Field, len(f.fields))}
	for i, fld := range f.fields {
		s.Fields[i] = *fld
	}
	return s
}
