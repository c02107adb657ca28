package release

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// versionNameKey labels the human-readable tag line in the rendered artifact.
	versionNameKey = "versionName"
	// versionCodeKey labels the derived build code line in the rendered artifact.
	versionCodeKey = "versionCode"
)

// errMalformedRecord is returned when a rendered record cannot be parsed back.
var errMalformedRecord = errors.New("malformed version record")

// Record carries the two values the store updater consumes: the tag as
// supplied and the compact build code derived from it.
type Record struct {
	// VersionName is the version tag, unmodified.
	VersionName string
	// VersionCode is VersionName with every dot removed.
	VersionCode string
}

// NewRecord derives a record from the provided version tag.
func NewRecord(tag string) *Record {
	return &Record{
		VersionName: tag,
		VersionCode: BuildCode(tag),
	}
}

// BuildCode removes every dot from the tag, preserving the order of the
// remaining characters. The transform is purely textual, not a numeric parse:
// store systems reject dotted version codes but accept the rest of the tag
// as-is.
func BuildCode(tag string) string {
	return strings.ReplaceAll(tag, ".", "")
}

// Render serializes the record as the two-line key=value artifact,
// each line terminated by a newline.
func (r *Record) Render() string {
	var builder strings.Builder

	builder.WriteString(versionNameKey)
	builder.WriteByte('=')
	builder.WriteString(r.VersionName)
	builder.WriteByte('\n')
	builder.WriteString(versionCodeKey)
	builder.WriteByte('=')
	builder.WriteString(r.VersionCode)
	builder.WriteByte('\n')

	return builder.String()
}

// Parse reads a rendered record back. It accepts the exact shape produced by
// Render and rejects anything else.
func Parse(contents []byte) (*Record, error) {
	lines := strings.Split(strings.TrimRight(string(contents), "\n"), "\n")
	if len(lines) != 2 {
		return nil, fmt.Errorf("%w: expected 2 lines, got %d", errMalformedRecord, len(lines))
	}

	name, ok := strings.CutPrefix(lines[0], versionNameKey+"=")
	if !ok {
		return nil, fmt.Errorf("%w: missing %s line", errMalformedRecord, versionNameKey)
	}

	code, ok := strings.CutPrefix(lines[1], versionCodeKey+"=")
	if !ok {
		return nil, fmt.Errorf("%w: missing %s line", errMalformedRecord, versionCodeKey)
	}

	return &Record{
		VersionName: name,
		VersionCode: code,
	}, nil
}

// Clone returns a copy of the record to avoid leaking internal references.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	cloned := *r

	return &cloned
}
