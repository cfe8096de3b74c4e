package bequest

// Release is the semantic version of this build. Untagged builds carry the
// -dev suffix.
const Release = "v0.1.0-dev"

// GitCommit is set at link time:
//
//	go build -ldflags "-X github.com/iov-one/bequest.GitCommit=$(git rev-parse --short HEAD)"
var GitCommit = ""

// Version returns the release, followed by the commit it was built from
// when known.
func Version() string {
	if GitCommit == "" {
		return Release
	}
	return Release + " " + GitCommit
}
