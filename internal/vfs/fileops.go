package vfs

import (
	"io"
	"os"

	"github.com/pyrv32/pyrv32/internal/errno"
)

// Guest-visible open(2) flag bits, Linux RV32 values.
const (
	OCreat  = 0x40
	OExcl   = 0x80
	OTrunc  = 0x200
	OAppend = 0x400
	OAccMode = 0x3
	ORDONLY = 0x0
	OWRONLY = 0x1
	ORDWR   = 0x2
)

// Open honours O_CREAT/O_TRUNC/O_APPEND/O_RDONLY/O_WRONLY/O_RDWR and
// returns the lowest free descriptor ≥ 3.
func (s *Sandbox) Open(path string, flags int32, mode uint32) (int, errno.Errno) {
	host, e := s.resolve(path)
	if e != errno.OK {
		return -1, e
	}

	var goFlags int
	switch flags & OAccMode {
	case ORDONLY:
		goFlags = os.O_RDONLY
	case OWRONLY:
		goFlags = os.O_WRONLY
	case ORDWR:
		goFlags = os.O_RDWR
	}
	if flags&OCreat != 0 {
		goFlags |= os.O_CREATE
	}
	if flags&OExcl != 0 {
		goFlags |= os.O_EXCL
	}
	if flags&OTrunc != 0 {
		goFlags |= os.O_TRUNC
	}
	if flags&OAppend != 0 {
		goFlags |= os.O_APPEND
	}

	f, err := os.OpenFile(host, goFlags, os.FileMode(mode&0o777))
	if err != nil {
		return -1, hostErrToErrno(err)
	}

	fd := s.allocFD()
	s.files[fd] = &openFile{host: f, path: path}
	return fd, errno.OK
}

func (s *Sandbox) allocFD() int {
	fd := firstFreeFD
	for {
		if _, used := s.files[fd]; !used {
			return fd
		}
		fd++
	}
}

// Close removes the table entry and releases the host handle.
// fd ∈ {0,1,2} is a no-op success — those are UART-backed, not VFS-backed.
func (s *Sandbox) Close(fd int) errno.Errno {
	if fd >= 0 && fd <= 2 {
		return errno.OK
	}
	of, ok := s.files[fd]
	if !ok {
		return errno.EBADF
	}
	delete(s.files, fd)
	of.host.Close()
	return errno.OK
}

// Read performs a short read permitted against the host handle.
func (s *Sandbox) Read(fd int, buf []byte) (int, errno.Errno) {
	of, ok := s.files[fd]
	if !ok {
		return 0, errno.EBADF
	}
	n, err := of.host.Read(buf)
	if err != nil && err != io.EOF {
		return n, hostErrToErrno(err)
	}
	return n, errno.OK
}

func (s *Sandbox) Write(fd int, buf []byte) (int, errno.Errno) {
	of, ok := s.files[fd]
	if !ok {
		return 0, errno.EBADF
	}
	n, err := of.host.Write(buf)
	if err != nil {
		return n, hostErrToErrno(err)
	}
	return n, errno.OK
}

// Lseek whence values, Linux convention.
const (
	SeekSet = 0
	SeekCur = 1
	SeekEnd = 2
)

func (s *Sandbox) Lseek(fd int, offset int64, whence int32) (int64, errno.Errno) {
	if fd <= 2 {
		return -1, errno.ESPIPE
	}
	of, ok := s.files[fd]
	if !ok {
		return -1, errno.EBADF
	}
	var goWhence int
	switch whence {
	case SeekSet:
		goWhence = io.SeekStart
	case SeekCur:
		goWhence = io.SeekCurrent
	case SeekEnd:
		goWhence = io.SeekEnd
	default:
		return -1, errno.EINVAL
	}
	n, err := of.host.Seek(offset, goWhence)
	if err != nil {
		return -1, hostErrToErrno(err)
	}
	return n, errno.OK
}

func (s *Sandbox) Unlink(path string, removeDir bool) errno.Errno {
	host, e := s.resolve(path)
	if e != errno.OK {
		return e
	}
	var err error
	if removeDir {
		err = os.Remove(host)
	} else {
		info, statErr := os.Stat(host)
		if statErr != nil {
			return hostErrToErrno(statErr)
		}
		if info.IsDir() {
			return errno.EISDIR
		}
		err = os.Remove(host)
	}
	if err != nil {
		return hostErrToErrno(err)
	}
	return errno.OK
}

func (s *Sandbox) Link(oldPath, newPath string) errno.Errno {
	oldHost, e := s.resolve(oldPath)
	if e != errno.OK {
		return e
	}
	newHost, e := s.resolve(newPath)
	if e != errno.OK {
		return e
	}
	if err := os.Link(oldHost, newHost); err != nil {
		return hostErrToErrno(err)
	}
	return errno.OK
}

func (s *Sandbox) Rename(oldPath, newPath string) errno.Errno {
	oldHost, e := s.resolve(oldPath)
	if e != errno.OK {
		return e
	}
	newHost, e := s.resolve(newPath)
	if e != errno.OK {
		return e
	}
	if err := os.Rename(oldHost, newHost); err != nil {
		return hostErrToErrno(err)
	}
	return errno.OK
}

// Access mode bits.
const (
	FOK = 0
	XOK = 1
	WOK = 2
	ROK = 4
)

func (s *Sandbox) Access(path string, mode int32) errno.Errno {
	host, e := s.resolve(path)
	if e != errno.OK {
		return e
	}
	info, err := os.Stat(host)
	if err != nil {
		return hostErrToErrno(err)
	}
	perm := info.Mode().Perm()
	if mode&ROK != 0 && perm&0o444 == 0 {
		return errno.EACCES
	}
	if mode&WOK != 0 && perm&0o222 == 0 {
		return errno.EACCES
	}
	if mode&XOK != 0 && perm&0o111 == 0 {
		return errno.EACCES
	}
	return errno.OK
}

// PathForFD is used by Fstat to recover the host path of an already-open
// descriptor.
func (s *Sandbox) PathForFD(fd int) (string, bool) {
	of, ok := s.files[fd]
	if !ok {
		return "", false
	}
	return of.host.Name(), true
}
