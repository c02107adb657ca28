// Package publisher uploads the metadata artifact to the release store.
//
// The upload is guarded by an explicit feature flag in settings whose default
// is off; the artifact is filed under a fixed release identifier and tagged
// as a pre-release via object metadata.
package publisher
