package cli

// Build metadata, injected via -ldflags at release time. The zero values
// identify a from-source build.
var (
	// Version is the release tag.
	Version = "dev"
	// Commit is the git revision the binary was built from.
	Commit = "unknown"
	// Date is when the binary was built.
	Date = "unknown"
)
