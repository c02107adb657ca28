// Package updater downloads and applies releases from the update folder.
//
// It reads the remote version record and artifact manifest, compares the
// remote version against the running build, validates local files against
// the manifest checksums, and atomically applies any artifact that differs.
// It also hosts the constants and checksum helpers shared with the packager.
package updater
