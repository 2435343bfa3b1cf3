package fsops

// Deleter abstracts the two filesystem mutations the pruner performs.
// RemoveFile never removes a directory and RemoveDir never removes a
// non-empty one, so a bad decision surfaces as an error instead of data loss.
type Deleter interface {
	RemoveFile(path string) error
	RemoveDir(path string) error
}
