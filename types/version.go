package types

// Version is the canonical project version.
// The CLI and library share this version; release tags must match it.
const Version = "0.3.0"
