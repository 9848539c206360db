package models

import (
	"time"
)

// Org deployment statuses
const (
	OrgAppPending   = "PENDING"
	OrgAppDeploying = "DEPLOYING"
	OrgAppPreview   = "PREVIEW"
	OrgAppRunning   = "RUNNING"
	OrgAppFailed    = "FAILED"
	OrgAppStopped   = "STOPPED"
)

// App is the published marketplace entity created when a generation succeeds
type App struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	IsPublic    bool      `gorm:"not null;default:false" json:"isPublic"`
	IsGoSuite   bool      `gorm:"not null;default:false" json:"isGoSuite"`
	CreatedByID string    `gorm:"size:36;not null;index" json:"createdById"`
	Screenshot  *string   `gorm:"type:text" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OrgApp is an organization's deployed instance of an App
type OrgApp struct {
	ID               string     `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID   string     `gorm:"size:36;not null;index" json:"organizationId"`
	AppID            string     `gorm:"size:36;not null;index" json:"appId"`
	Status           string     `gorm:"size:16;not null;default:PENDING" json:"status"`
	FlyAppID         *string    `gorm:"size:64;index" json:"flyAppId"`
	FlyURL           *string    `gorm:"size:255" json:"flyUrl"`
	DeployedVersion  int        `gorm:"not null;default:0" json:"deployedVersion"`
	PreviewExpiresAt *time.Time `json:"previewExpiresAt"`
	// DeployingFrom is the status held before the current deploy claim
	DeployingFrom    *string    `gorm:"size:16" json:"-"`
	Error            *string    `gorm:"type:text" json:"error"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// TableName overrides the table name for App
func (App) TableName() string {
	return "apps"
}

// TableName overrides the table name for OrgApp
func (OrgApp) TableName() string {
	return "org_apps"
}
