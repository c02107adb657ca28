// Package packager prepares the release metadata consumed by the store updater.
//
// It drives the external build pipeline, derives the compact build code from
// the version tag, writes the two-line metadata artifact, computes artifact
// checksums into a manifest, records the run in the local history, and hands
// off to the publisher when (and only when) publishing is enabled.
package packager
