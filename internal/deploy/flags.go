package deploy

import (
	"github.com/go4it/builder/internal/models"
)

// DeployFlags decides how an org deployment treats existing Fly apps
type DeployFlags struct {
	// ExistingFlyAppID is the Fly app to redeploy instead of creating a new one
	ExistingFlyAppID string `json:"existingFlyAppId,omitempty"`
	// IsPreviewLaunch marks a deploy of an org app still in PREVIEW; it keeps an expiry
	IsPreviewLaunch bool `json:"isPreviewLaunch"`
	// ConsumingStorePreview means the org takes over the marketplace preview app,
	// which must then be dropped from the preview's own expiry
	ConsumingStorePreview bool `json:"consumingStorePreview"`
}

// ResolveDeployFlags derives the deploy flags from an org app's status and Fly app id and
// the store preview app id of its generation. It performs no I/O.
func ResolveDeployFlags(status string, flyAppID, storePreviewFlyAppID *string) DeployFlags {
	var flags DeployFlags

	hasFlyApp := flyAppID != nil && *flyAppID != ""
	if hasFlyApp && (status == models.OrgAppRunning || status == models.OrgAppPreview) {
		flags.ExistingFlyAppID = *flyAppID
	}

	flags.IsPreviewLaunch = hasFlyApp && status == models.OrgAppPreview

	flags.ConsumingStorePreview = flags.IsPreviewLaunch &&
		storePreviewFlyAppID != nil &&
		flags.ExistingFlyAppID == *storePreviewFlyAppID

	return flags
}
