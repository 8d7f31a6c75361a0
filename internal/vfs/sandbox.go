// Package vfs implements the host-side filesystem the guest's syscalls
// operate on: a sandbox root directory, a guest-space current working
// directory, and a file-descriptor table. Path translation is the only
// entry point syscall handlers use to reach the host filesystem.
package vfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pyrv32/pyrv32/internal/errno"
)

// firstFreeFD is the lowest descriptor number the guest can be handed;
// 0/1/2 are reserved for the UARTs and never enter this table.
const firstFreeFD = 3

type openFile struct {
	host *os.File
	path string // guest-space path, for diagnostics
}

// Sandbox owns the root confinement, the guest CWD, and the fd table.
type Sandbox struct {
	rootHost string
	cwd      string // absolute guest path, always starts with "/"
	files    map[int]*openFile
	nextFD   int
}

func New(rootHostDir string) (*Sandbox, error) {
	abs, err := filepath.Abs(rootHostDir)
	if err != nil {
		return nil, fmt.Errorf("vfs: resolve sandbox root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("vfs: sandbox root %q: %w", rootHostDir, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("vfs: sandbox root %q: %w", rootHostDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vfs: sandbox root %q is not a directory", rootHostDir)
	}
	return &Sandbox{
		rootHost: resolved,
		cwd:      "/",
		files:    make(map[int]*openFile),
		nextFD:   firstFreeFD,
	}, nil
}

// Getcwd returns the guest-space current working directory.
func (s *Sandbox) Getcwd() string { return s.cwd }

// resolve implements the three-step translation in the path-sandbox
// design: join with CWD, normalise . and .., compose under the host
// root, then re-verify against the root after resolving host symlinks.
func (s *Sandbox) resolve(guestPath string) (string, errno.Errno) {
	p := guestPath
	if !strings.HasPrefix(p, "/") {
		p = s.cwd + "/" + p
	}

	parts := strings.Split(p, "/")
	var stack []string
	for _, c := range parts {
		switch c {
		case "", ".":
			// drop
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			// never pop above the guest root
		default:
			stack = append(stack, c)
		}
	}
	cleanGuest := "/" + strings.Join(stack, "/")

	hostPath := filepath.Join(s.rootHost, cleanGuest)
	if !s.underRoot(hostPath) {
		return "", errno.EACCES
	}

	// Resolve symlinks on whatever prefix of the path already exists on
	// the host, then re-check containment; a symlink escaping the root
	// must fail even if the literal path looked contained.
	existing := hostPath
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		existing = parent
	}
	resolved, err := filepath.EvalSymlinks(existing)
	if err == nil {
		suffix := strings.TrimPrefix(hostPath, existing)
		candidate := filepath.Join(resolved, suffix)
		if !s.underRoot(candidate) {
			return "", errno.EACCES
		}
		hostPath = candidate
	}

	return hostPath, errno.OK
}

func (s *Sandbox) underRoot(hostPath string) bool {
	rel, err := filepath.Rel(s.rootHost, hostPath)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

// Chdir validates that path resolves inside the sandbox and names a
// directory, then updates the guest CWD.
func (s *Sandbox) Chdir(path string) errno.Errno {
	host, e := s.resolve(path)
	if e != errno.OK {
		return e
	}
	info, err := os.Stat(host)
	if err != nil {
		return hostErrToErrno(err)
	}
	if !info.IsDir() {
		return errno.ENOTDIR
	}

	p := path
	if !strings.HasPrefix(p, "/") {
		p = s.cwd + "/" + p
	}
	parts := strings.Split(p, "/")
	var stack []string
	for _, c := range parts {
		switch c {
		case "", ".":
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, c)
		}
	}
	s.cwd = "/" + strings.Join(stack, "/")
	return errno.OK
}

func hostErrToErrno(err error) errno.Errno {
	switch {
	case os.IsNotExist(err):
		return errno.ENOENT
	case os.IsExist(err):
		return errno.EEXIST
	case os.IsPermission(err):
		return errno.EACCES
	default:
		return errno.EINVAL
	}
}
