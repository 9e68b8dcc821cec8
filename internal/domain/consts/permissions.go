package consts

// Permissions for files and directories the program creates.
const (
	// ** World Readable **
	PermsGenericDir  = 0o755
	PermsDownloadDir = 0o755

	// ** Private **
	PermsHomeProgDir = 0o750
)
