package app

// Version of the supervisor.
// Format is YYYY.WW[.patch]
// YYYY is the 4-digit year of the release (e.g. 2026)
// WW is the 2-digit week of the year (e.g. 02, 12)
// patch is the optional patch number (in case more than one release occurs during the same week)
const Version = "2026.31"

// Commit is the git commit the binary was built from, set via -ldflags at
// build time. Left blank for development builds.
var Commit = ""
