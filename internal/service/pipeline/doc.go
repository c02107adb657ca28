// Package pipeline wraps the external build pipeline behind a small runner.
//
// The packager never reimplements the build; it shells out to the configured
// entry point, passing the upload flag and version tag through, and streams
// its output. DetectTag extracts a fallback version from the project manifest
// when no tag is supplied.
package pipeline
