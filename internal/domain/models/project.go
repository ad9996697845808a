package models

import "time"

// ProjectKind selects the project workflow. Only "translation" projects
// feed the working memory and propagate confirmations; review and custom
// workflows persist segment edits without memory side effects.
type ProjectKind string

const (
	ProjectTranslation ProjectKind = "translation"
	ProjectReview      ProjectKind = "review"
	ProjectCustom      ProjectKind = "custom"
)

type Project struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Kind       ProjectKind `json:"kind"`
	SourceLang string      `json:"source_lang"`
	TargetLang string      `json:"target_lang"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// File is an imported spreadsheet belonging to exactly one project.
type File struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Name       string    `json:"name"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}
