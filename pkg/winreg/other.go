//go:build !windows

package winreg

// NewStore returns the platform registry Store. Off Windows there is no
// registry, so an empty in-memory store stands in: every key reads as
// absent and registry steps are skipped.
func NewStore() Store {
	return NewMemStore()
}
