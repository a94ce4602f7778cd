package main

import "os"

// Exit codes for different error types.
// These enable scripts to distinguish between failure modes.
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0

	// ExitGeneral indicates a general error
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or usage error
	ExitUsage = 2

	// ExitConfig indicates the game directory or configuration is unusable
	ExitConfig = 3

	// ExitManifest indicates the manifest could not be loaded
	ExitManifest = 4

	// ExitInstallFailed indicates an install did not complete
	ExitInstallFailed = 5

	// ExitRemoveFailed indicates a removal did not complete
	ExitRemoveFailed = 6
)

// exitWithCode exits with the specified exit code
func exitWithCode(code int) {
	os.Exit(code)
}
