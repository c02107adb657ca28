// Package config defines settings used by the release-feed binaries and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the build pipeline path, the update folder URL and
// the publish feature flag, which defaults to off.
package config
