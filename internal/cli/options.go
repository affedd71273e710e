package cli

import "time"

// Options is the fully-parsed configuration for a single invocation.
//
// MergedPath is the conflicted file. When it is empty and no mode flag is
// set, the conflicted files of the current repository are offered instead.
type Options struct {
	MergedPath string

	ApplyAll string // current|incoming|both
	Check    bool

	Backup bool
	Yes    bool

	Verbose int
	LogFile string

	CacheTTL    time.Duration
	ScanTimeout time.Duration
}
