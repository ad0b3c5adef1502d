package provisioning

import "profile-agent/internal/domain"

// SkipReason explains why a folder produced no profile.
type SkipReason string

const (
	SkipNone          SkipReason = ""
	SkipNoPhotos      SkipReason = "no_photos"
	SkipPersistFailed SkipReason = "persist_failed"
	SkipCanceled      SkipReason = "canceled"
)

// ItemResult is the outcome of one corpus folder.
type ItemResult struct {
	Folder    string
	ProfileID string
	Name      string
	Roles     map[domain.PhotoRole]int
	Skip      SkipReason
	Err       error
}

func (r ItemResult) OK() bool { return r.Skip == SkipNone }

// Report summarizes a provisioning, purge or reconcile run.
type Report struct {
	Results []ItemResult
	// Removed lists the source folders of deleted profiles.
	Removed []string
	Deleted domain.DeleteStats
}

func (r Report) Created() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

func (r Report) Skipped() int {
	return len(r.Results) - r.Created()
}

// DeletedProfiles returns the number of profile rows removed by the run.
func (r Report) DeletedProfiles() int {
	return r.Deleted.Profiles()
}
