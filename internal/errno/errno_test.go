package errno

import "testing"

func TestNegated(t *testing.T) {
	cases := []struct {
		e    Errno
		want uint32
	}{
		{ENOENT, 0xFFFFFFFE},
		{EBADF, 0xFFFFFFF7},
		{ENOSYS, 0xFFFFFFDA},
	}
	for _, c := range cases {
		if got := c.e.Negated(); got != c.want {
			t.Errorf("%v.Negated() = 0x%08x, want 0x%08x", c.e, got, c.want)
		}
	}
}

func TestErrorStringsAreDistinct(t *testing.T) {
	seen := make(map[string]Errno)
	for _, e := range []Errno{OK, ENOENT, EBADF, ENOMEM, EACCES, EEXIST, ENOTDIR, EISDIR, EINVAL, ESPIPE, ERANGE, ENOSYS} {
		msg := e.Error()
		if other, ok := seen[msg]; ok {
			t.Errorf("errno %v and %v share message %q", e, other, msg)
		}
		seen[msg] = e
	}
}
