package vfs

import (
	"os"

	"github.com/pyrv32/pyrv32/internal/errno"
)

// StatInfo carries the fields the syscall shim marshals into the guest's
// stat buffer. Fields the host cannot supply are left zero by the caller.
type StatInfo struct {
	Mode    uint32
	Size    int64
	Nlink   uint32
	Blksize uint32
	Blocks  int64
	Atime   int64
	Mtime   int64
	Ctime   int64
}

const (
	sIFREG = 0o100000
	sIFDIR = 0o040000
	sIFCHR = 0o020000
)

func (s *Sandbox) Stat(path string) (StatInfo, errno.Errno) {
	host, e := s.resolve(path)
	if e != errno.OK {
		return StatInfo{}, e
	}
	info, err := os.Stat(host)
	if err != nil {
		return StatInfo{}, hostErrToErrno(err)
	}
	return statFromFileInfo(info), errno.OK
}

func (s *Sandbox) Fstat(fd int) (StatInfo, errno.Errno) {
	// fd 0/1/2 are synthetic character devices backed by the UARTs, not
	// the VFS; the syscall shim fills a canonical S_IFCHR stat for those
	// without consulting the sandbox.
	of, ok := s.files[fd]
	if !ok {
		return StatInfo{}, errno.EBADF
	}
	info, err := of.host.Stat()
	if err != nil {
		return StatInfo{}, hostErrToErrno(err)
	}
	return statFromFileInfo(info), errno.OK
}

func statFromFileInfo(info os.FileInfo) StatInfo {
	mode := uint32(info.Mode().Perm())
	if info.IsDir() {
		mode |= sIFDIR
	} else {
		mode |= sIFREG
	}
	mtime := info.ModTime().Unix()
	return StatInfo{
		Mode:    mode,
		Size:    info.Size(),
		Nlink:   1,
		Blksize: 4096,
		Blocks:  (info.Size() + 511) / 512,
		Atime:   mtime,
		Mtime:   mtime,
		Ctime:   mtime,
	}
}

// CharDeviceStat returns the synthetic stat the syscall shim reports for
// fd ≤ 2 (the UART-backed standard streams).
func CharDeviceStat() StatInfo {
	return StatInfo{Mode: sIFCHR | 0o666, Nlink: 1, Blksize: 1}
}
