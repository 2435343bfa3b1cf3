package safety

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath   = errors.New("invalid path")
	ErrProtectedPath = errors.New("protected path")
	ErrOutsideRoot   = errors.New("outside cleanup root")
	ErrTraversal     = errors.New("path traversal detected")
)

// Validator enforces the safety contract for cleanup roots and delete targets
type Validator struct {
	ProtectedPaths []string
}

// NewValidator creates a validator with the default protected paths plus extras
func NewValidator(extraProtected []string) *Validator {
	return &Validator{
		ProtectedPaths: defaultProtected(extraProtected),
	}
}

// ValidateRoot checks that root may be cleaned at all.
// The root must be absolute and already clean.
func (v *Validator) ValidateRoot(root string) error {
	if strings.TrimSpace(root) == "" || !filepath.IsAbs(root) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, root)
	}
	if DetectTraversal(root) {
		return fmt.Errorf("%w: %s", ErrTraversal, root)
	}
	if filepath.Clean(root) != root {
		return fmt.Errorf("%w: %s is not clean", ErrInvalidPath, root)
	}
	if IsProtectedPath(root, v.ProtectedPaths) {
		return fmt.Errorf("%w: %s", ErrProtectedPath, root)
	}
	return nil
}

// ValidateDeleteTarget is the single-source-of-truth for delete authorization.
// The target must sit strictly below root; root itself is never a valid target.
func (v *Validator) ValidateDeleteTarget(root, path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrInvalidPath
	}
	if DetectTraversal(path) {
		return fmt.Errorf("%w: %s", ErrTraversal, path)
	}
	if !IsStrictlyWithin(path, root) {
		return fmt.Errorf("%w: %s not below %s", ErrOutsideRoot, path, root)
	}
	if IsProtectedPath(path, v.ProtectedPaths) {
		return fmt.Errorf("%w: %s", ErrProtectedPath, path)
	}
	return nil
}

// DetectTraversal blocks any ".." segment in raw input
func DetectTraversal(raw string) bool {
	for _, p := range strings.Split(filepath.ToSlash(raw), "/") {
		if p == ".." {
			return true
		}
	}
	return false
}

// IsStrictlyWithin reports whether path is a descendant of root (not root itself)
func IsStrictlyWithin(path, root string) bool {
	p := filepath.Clean(path)
	r := filepath.Clean(root)
	if p == r {
		return false
	}
	if r == string(os.PathSeparator) {
		return strings.HasPrefix(p, r)
	}
	return strings.HasPrefix(p, r+string(os.PathSeparator))
}

// IsProtectedPath checks if path matches or lies below a protected path.
// "/" only matches exactly; everything is below it.
func IsProtectedPath(path string, protected []string) bool {
	p := filepath.Clean(path)
	if p == string(os.PathSeparator) {
		return true
	}
	for _, prot := range protected {
		prot = filepath.Clean(prot)
		if prot == string(os.PathSeparator) {
			continue
		}
		if p == prot || IsStrictlyWithin(p, prot) {
			return true
		}
	}
	return false
}

// defaultProtected returns the base set of protected paths plus any extras
func defaultProtected(extra []string) []string {
	base := []string{
		"/",
		"/etc",
		"/bin",
		"/usr",
		"/boot",
		"/lib",
		"/lib64",
		"/sbin",
		"/proc",
		"/sys",
		"/dev",
		"/var/lib/stale-cleaner",
		"/etc/stale-cleaner",
	}
	return append(base, extra...)
}
