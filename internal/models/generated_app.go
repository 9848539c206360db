package models

import (
	"time"
)

// Generation statuses. RUNNING is the terminal success value and is only ever
// written together with AppID.
const (
	GenerationPending    = "PENDING"
	GenerationGenerating = "GENERATING"
	GenerationRunning    = "RUNNING"
	GenerationFailed     = "FAILED"
)

// Iteration statuses
const (
	IterationPending   = "PENDING"
	IterationIterating = "ITERATING"
	IterationComplete  = "COMPLETE"
	IterationFailed    = "FAILED"
)

// GeneratedApp is one AI generation job and the workspace it produced
type GeneratedApp struct {
	ID               string         `gorm:"primaryKey;size:36" json:"id"`
	Prompt           string         `gorm:"type:text;not null" json:"prompt"`
	BusinessContext  JSON           `json:"businessContext,omitempty"`
	Title            *string        `gorm:"size:255" json:"title"`
	Description      *string        `gorm:"type:text" json:"description"`
	Status           string         `gorm:"size:16;not null;default:PENDING;index" json:"status"`
	SourceDir        *string        `gorm:"size:1024" json:"sourceDir"`
	Error            *string        `gorm:"type:text" json:"error"`
	IterationCount   int            `gorm:"not null;default:0" json:"iterationCount"`
	CreatedByID      string         `gorm:"size:36;not null;index" json:"createdById"`
	AppID            *string        `gorm:"size:36;index" json:"appId"`
	PreviewFlyAppID  *string        `gorm:"size:64;index" json:"previewFlyAppId"`
	PreviewFlyURL    *string        `gorm:"size:255" json:"previewFlyUrl"`
	PreviewExpiresAt *time.Time     `json:"previewExpiresAt"`
	Screenshot       *string        `gorm:"type:text" json:"-"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	Iterations       []AppIteration `gorm:"foreignKey:GeneratedAppID" json:"iterations,omitempty"`
}

// AppIteration is a follow-up modification request against a generation's workspace
type AppIteration struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	GeneratedAppID string    `gorm:"size:36;not null;index:idx_iteration_sequence,unique" json:"generatedAppId"`
	SequenceNumber int       `gorm:"not null;index:idx_iteration_sequence,unique" json:"sequenceNumber"`
	Prompt         string    `gorm:"type:text;not null" json:"prompt"`
	Status         string    `gorm:"size:16;not null;default:PENDING" json:"status"`
	Error          *string   `gorm:"type:text" json:"error"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName overrides the table name for GeneratedApp
func (GeneratedApp) TableName() string {
	return "generated_apps"
}

// TableName overrides the table name for AppIteration
func (AppIteration) TableName() string {
	return "app_iterations"
}

// Succeeded reports whether the generation reached its terminal success state
func (g *GeneratedApp) Succeeded() bool {
	return g.Status == GenerationRunning && g.AppID != nil
}

// Startable reports whether a generation job may (re)start for this record
func (g *GeneratedApp) Startable() bool {
	return g.Status == GenerationPending || g.Status == GenerationGenerating
}
