// Package buildinfo holds build-time metadata injected via -ldflags.
// Version doubles as the Sentry release when SENTRY_RELEASE is unset.
package buildinfo

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/garyellow/whattoeat-linebot/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/garyellow/whattoeat-linebot/internal/buildinfo.Commit=...
var Commit = ""
