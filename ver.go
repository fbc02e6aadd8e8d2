package resume

var (
	// Revision is the git commit id, passed in from shell.
	Revision = "unknown"

	// Branch is the git repo branch name, passed in from shell.
	Branch = "master"

	BuildUser = "unknown"

	BuildDate = "unknown"

	// Version is the major version of resume.
	Version = "unknown"
)
