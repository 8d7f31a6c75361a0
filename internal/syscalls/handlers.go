package syscalls

import (
	"github.com/pyrv32/pyrv32/internal/errno"
	"github.com/pyrv32/pyrv32/internal/vfs"
)

// register indices for the Linux RV32 calling convention.
const (
	a0 = 10
	a1 = 11
	a2 = 12
	a3 = 13
	a4 = 14
	a5 = 15
)

const atRemoveDir = 0x200

func sysGetcwd(e *Env) uint32 {
	buf := e.CPU.X(a0)
	size := e.CPU.X(a1)
	data := append([]byte(e.VFS.Getcwd()), 0)
	if uint32(len(data)) > size {
		return errno.ERANGE.Negated()
	}
	e.Bus.WriteBytes(buf, data)
	return buf
}

func sysUnlinkat(e *Env) uint32 {
	if !checkAtFDCWD(e, a0) {
		return errno.EINVAL.Negated()
	}
	path, ok := argPath(e, a1)
	if !ok {
		return errno.EINVAL.Negated()
	}
	flags := e.CPU.X(a2)
	if en := e.VFS.Unlink(path, flags&atRemoveDir != 0); en != errno.OK {
		return en.Negated()
	}
	return 0
}

func sysLinkat(e *Env) uint32 {
	if !checkAtFDCWD(e, a0) || !checkAtFDCWD(e, a2) {
		return errno.EINVAL.Negated()
	}
	oldPath, ok1 := argPath(e, a1)
	newPath, ok2 := argPath(e, a3)
	if !ok1 || !ok2 {
		return errno.EINVAL.Negated()
	}
	if en := e.VFS.Link(oldPath, newPath); en != errno.OK {
		return en.Negated()
	}
	return 0
}

func sysRenameat(e *Env) uint32 {
	if !checkAtFDCWD(e, a0) || !checkAtFDCWD(e, a2) {
		return errno.EINVAL.Negated()
	}
	oldPath, ok1 := argPath(e, a1)
	newPath, ok2 := argPath(e, a3)
	if !ok1 || !ok2 {
		return errno.EINVAL.Negated()
	}
	if en := e.VFS.Rename(oldPath, newPath); en != errno.OK {
		return en.Negated()
	}
	return 0
}

func sysFaccessat(e *Env) uint32 {
	if !checkAtFDCWD(e, a0) {
		return errno.EINVAL.Negated()
	}
	path, ok := argPath(e, a1)
	if !ok {
		return errno.EINVAL.Negated()
	}
	mode := int32(e.CPU.X(a2))
	if en := e.VFS.Access(path, mode); en != errno.OK {
		return en.Negated()
	}
	return 0
}

func sysChdir(e *Env) uint32 {
	path, ok := argPath(e, a0)
	if !ok {
		return errno.EINVAL.Negated()
	}
	if en := e.VFS.Chdir(path); en != errno.OK {
		return en.Negated()
	}
	return 0
}

func sysOpenat(e *Env) uint32 {
	if !checkAtFDCWD(e, a0) {
		return errno.EINVAL.Negated()
	}
	path, ok := argPath(e, a1)
	if !ok {
		return errno.EINVAL.Negated()
	}
	flags := int32(e.CPU.X(a2))
	mode := e.CPU.X(a3)
	fd, en := e.VFS.Open(path, flags, mode)
	if en != errno.OK {
		return en.Negated()
	}
	return uint32(fd)
}

func sysClose(e *Env) uint32 {
	fd := int32(e.CPU.X(a0))
	if en := e.VFS.Close(int(fd)); en != errno.OK {
		return en.Negated()
	}
	return 0
}

func sysLseek(e *Env) uint32 {
	fd := int32(e.CPU.X(a0))
	offset := int64(int32(e.CPU.X(a1)))
	whence := int32(e.CPU.X(a2))
	n, en := e.VFS.Lseek(int(fd), offset, whence)
	if en != errno.OK {
		return en.Negated()
	}
	return uint32(n)
}

func sysRead(e *Env) uint32 {
	fd := int32(e.CPU.X(a0))
	bufAddr := e.CPU.X(a1)
	length := e.CPU.X(a2)
	p := make([]byte, length)

	if fd == 0 {
		n := e.Bus.ConsoleRX.BlockingRead(p)
		e.Bus.WriteBytes(bufAddr, p[:n])
		return uint32(n)
	}

	n, en := e.VFS.Read(int(fd), p)
	if en != errno.OK {
		return en.Negated()
	}
	e.Bus.WriteBytes(bufAddr, p[:n])
	return uint32(n)
}

func sysWrite(e *Env) uint32 {
	fd := int32(e.CPU.X(a0))
	bufAddr := e.CPU.X(a1)
	length := e.CPU.X(a2)

	data, ok := e.Bus.ReadBytes(bufAddr, int(length))
	if !ok {
		return errno.EINVAL.Negated()
	}

	switch fd {
	case 1:
		for _, b := range data {
			e.Bus.ConsoleUART.Write(b)
		}
		return length
	case 2:
		for _, b := range data {
			e.Bus.DebugUART.Write(b)
		}
		return length
	default:
		n, en := e.VFS.Write(int(fd), data)
		if en != errno.OK {
			return en.Negated()
		}
		return uint32(n)
	}
}

func sysFstatat(e *Env) uint32 {
	if !checkAtFDCWD(e, a0) {
		return errno.EINVAL.Negated()
	}
	path, ok := argPath(e, a1)
	if !ok {
		return errno.EINVAL.Negated()
	}
	statbuf := e.CPU.X(a2)
	info, en := e.VFS.Stat(path)
	if en != errno.OK {
		return en.Negated()
	}
	e.Bus.WriteBytes(statbuf, marshalStat(info))
	return 0
}

func sysFstat(e *Env) uint32 {
	fd := int32(e.CPU.X(a0))
	statbuf := e.CPU.X(a1)

	if fd >= 0 && fd <= 2 {
		e.Bus.WriteBytes(statbuf, marshalStat(vfs.CharDeviceStat()))
		return 0
	}

	info, en := e.VFS.Fstat(int(fd))
	if en != errno.OK {
		return en.Negated()
	}
	e.Bus.WriteBytes(statbuf, marshalStat(info))
	return 0
}

func sysExit(e *Env) uint32 {
	status := e.CPU.X(a0)
	e.CPU.Halted = true
	e.CPU.ExitCode = uint8(status)
	return status
}
