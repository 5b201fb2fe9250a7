package task

import "time"

// Config holds producer settings
type Config struct {
	// ScriptsDir is the only directory script tasks may run from. Empty disables script tasks.
	ScriptsDir    string
	ScriptTimeout time.Duration
	// DiskPath is the mount point reported by the system producer
	DiskPath string
}
