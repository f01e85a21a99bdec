// Package version exposes build metadata injected at link time:
//
//	go build -ldflags "-X github.com/bissquit/notification-registry/internal/version.Version=1.2.0"
package version

var (
	// Version is the release version.
	Version = "0.0.0"
	// GitCommit is the commit the binary was built from.
	GitCommit = "unknown"
	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// Info is the build metadata served at /version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
}

// Get returns the metadata of the running binary.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
	}
}
