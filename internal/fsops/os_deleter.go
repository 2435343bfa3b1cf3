package fsops

import (
	"os"

	"golang.org/x/sys/unix"
)

// OSDeleter implements Deleter with unlink(2) and rmdir(2)
type OSDeleter struct{}

func (OSDeleter) RemoveFile(path string) error {
	if err := unix.Unlink(path); err != nil {
		return &os.PathError{Op: "unlink", Path: path, Err: err}
	}
	return nil
}

func (OSDeleter) RemoveDir(path string) error {
	if err := unix.Rmdir(path); err != nil {
		return &os.PathError{Op: "rmdir", Path: path, Err: err}
	}
	return nil
}
