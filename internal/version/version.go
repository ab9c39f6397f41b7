// ABOUTME: Version and product identification
// ABOUTME: Values are overridden at build time via -ldflags
package version

var (
	// Version is the release version
	Version = "0.1.0"
	// GitCommit is the commit the binary was built from
	GitCommit = "unknown"
	// BuildDate is when the binary was built
	BuildDate = "unknown"
)

const (
	// Product is the product name
	Product = "tuneplay"
	// Manufacturer identifies the authors
	Manufacturer = "Resonate Protocol"
)

// String returns a one-line version description
func String() string {
	return Product + " " + Version + " (" + GitCommit + ", built " + BuildDate + ")"
}
