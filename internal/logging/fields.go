package logging

// Structured field names.
const (
	FieldError    = "error"
	FieldPath     = "path"
	FieldOutput   = "output"
	FieldTree     = "tree"
	FieldTemplate = "template"
	FieldKey      = "key"
	FieldPlugin   = "plugin"
	FieldLanguage = "language"
	FieldConfig   = "config"
	FieldDatabase = "database"

	FieldFiles    = "files"
	FieldIndexed  = "indexed"
	FieldSkipped  = "skipped"
	FieldRendered = "rendered"
	FieldFailed   = "failed"
	FieldJobs     = "jobs"
	FieldDuration = "duration"

	FieldVersion = "version"
)
