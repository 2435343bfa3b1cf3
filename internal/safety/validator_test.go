package safety

import (
	"errors"
	"path/filepath"
	"testing"
)

// TestProtectedPathBlocking verifies protected paths are blocked
func TestProtectedPathBlocking(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"root slash", "/", true},
		{"etc", "/etc", true},
		{"etc subdir", "/etc/ssh", true},
		{"bin file", "/bin/bash", true},
		{"usr local", "/usr/local", true},
		{"proc", "/proc/1", true},
		{"stale-cleaner config", "/etc/stale-cleaner/config.yaml", true},
		{"stale-cleaner db", "/var/lib/stale-cleaner/deletions.db", true},
		{"tmp allowed", "/tmp", false},
		{"tmp file", "/tmp/file.txt", false},
		{"var tmp", "/var/tmp", false},
		{"lookalike prefix", "/etcetera", false},
		{"home user", "/home/user", false},
	}

	protected := defaultProtected(nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsProtectedPath(tt.path, protected)
			if result != tt.expected {
				t.Errorf("IsProtectedPath(%s) = %v, expected %v", tt.path, result, tt.expected)
			}
		})
	}
}

func TestExtraProtectedPaths(t *testing.T) {
	v := NewValidator([]string{"/srv/archive"})

	if !IsProtectedPath("/srv/archive/2024", v.ProtectedPaths) {
		t.Error("Expected extra protected path to be honored")
	}
	if IsProtectedPath("/srv/scratch", v.ProtectedPaths) {
		t.Error("Sibling of extra protected path should not be protected")
	}
}

// TestTraversalDetection verifies ".." segments are detected
func TestTraversalDetection(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"normal path", "/tmp/file.txt", false},
		{"dotdot parent", "/tmp/../etc/passwd", true},
		{"dotdot at start", "../etc/passwd", true},
		{"dotdot at end", "/tmp/..", true},
		{"single dot ok", "/tmp/./file", false},
		{"dots in name ok", "/tmp/..hidden", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetectTraversal(tt.path)
			if result != tt.expected {
				t.Errorf("DetectTraversal(%s) = %v, expected %v", tt.path, result, tt.expected)
			}
		})
	}
}

func TestIsStrictlyWithin(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		root     string
		expected bool
	}{
		{"root itself", "/tmp/work", "/tmp/work", false},
		{"child", "/tmp/work/a", "/tmp/work", true},
		{"grandchild", "/tmp/work/a/b", "/tmp/work", true},
		{"sibling with shared prefix", "/tmp/workshop", "/tmp/work", false},
		{"parent", "/tmp", "/tmp/work", false},
		{"under slash", "/tmp", "/", true},
		{"trailing slash on root", "/tmp/work/a", "/tmp/work/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsStrictlyWithin(tt.path, tt.root)
			if result != tt.expected {
				t.Errorf("IsStrictlyWithin(%s, %s) = %v, expected %v", tt.path, tt.root, result, tt.expected)
			}
		})
	}
}

func TestValidateRoot(t *testing.T) {
	tmpDir := t.TempDir()
	validator := NewValidator(nil)

	tests := []struct {
		name        string
		root        string
		expectError error
	}{
		{"temp dir", tmpDir, nil},
		{"empty", "", ErrInvalidPath},
		{"relative", "work", ErrInvalidPath},
		{"unclean", tmpDir + "/./sub", ErrInvalidPath},
		{"traversal", tmpDir + "/../x", ErrTraversal},
		{"slash", "/", ErrProtectedPath},
		{"etc", "/etc", ErrProtectedPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateRoot(tt.root)
			if tt.expectError == nil {
				if err != nil {
					t.Errorf("ValidateRoot(%s) unexpected error: %v", tt.root, err)
				}
				return
			}
			if !errors.Is(err, tt.expectError) {
				t.Errorf("ValidateRoot(%s) = %v, expected %v", tt.root, err, tt.expectError)
			}
		})
	}
}

// TestValidateDeleteTarget covers the full delete authorization contract
func TestValidateDeleteTarget(t *testing.T) {
	root := t.TempDir()
	validator := NewValidator([]string{filepath.Join(root, "vault")})

	tests := []struct {
		name        string
		path        string
		expectError error
	}{
		{"file below root", filepath.Join(root, "old.log"), nil},
		{"nested dir", filepath.Join(root, "a", "b"), nil},
		{"root itself", root, ErrOutsideRoot},
		{"outside root", "/var/tmp/other", ErrOutsideRoot},
		{"traversal attempt", root + "/a/../../escape", ErrTraversal},
		{"protected extra", filepath.Join(root, "vault", "secret"), ErrProtectedPath},
		{"empty path", "", ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateDeleteTarget(root, tt.path)
			if tt.expectError == nil {
				if err != nil {
					t.Errorf("ValidateDeleteTarget(%s) unexpected error: %v", tt.path, err)
				}
				return
			}
			if !errors.Is(err, tt.expectError) {
				t.Errorf("ValidateDeleteTarget(%s) = %v, expected %v", tt.path, err, tt.expectError)
			}
		})
	}
}
