// Package release models the version record published to the store updater.
//
// A Record pairs the human-readable version tag with the compact build code
// derived from it by stripping dots. Render and Parse convert between the
// record and the two-line key=value text artifact.
package release
