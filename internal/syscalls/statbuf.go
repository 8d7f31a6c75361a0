package syscalls

import "github.com/pyrv32/pyrv32/internal/vfs"

// statBufSize is the fixed buffer the shim marshals stat results into:
// a 128-byte, little-endian layout wide enough to carry 64-bit size and
// timestamp fields without crowding the 32-bit identity fields. Fields
// the host cannot supply (st_dev, st_uid, st_gid, st_rdev) are left zero.
const statBufSize = 128

func putU32(buf []byte, off int, v uint32) {
	buf[off] = byte(v)
	buf[off+1] = byte(v >> 8)
	buf[off+2] = byte(v >> 16)
	buf[off+3] = byte(v >> 24)
}

func putU64(buf []byte, off int, v uint64) {
	putU32(buf, off, uint32(v))
	putU32(buf, off+4, uint32(v>>32))
}

func marshalStat(info vfs.StatInfo) []byte {
	buf := make([]byte, statBufSize)
	putU32(buf, 8, info.Mode)
	putU32(buf, 12, info.Nlink)
	putU64(buf, 32, uint64(info.Size))
	putU32(buf, 40, info.Blksize)
	putU64(buf, 48, uint64(info.Blocks))
	putU64(buf, 56, uint64(info.Atime))
	putU64(buf, 72, uint64(info.Mtime))
	putU64(buf, 88, uint64(info.Ctime))
	return buf
}
