//go:build unix

package bridge

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// openStream checks that fd is open and wraps it. Input descriptors are
// switched to non-blocking mode so the runtime poller owns them and Close
// interrupts a pending read at shutdown.
func openStream(fd int, name string, input bool) (*os.File, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, fmt.Errorf("%w: %s fd %d: %v", ErrBadDescriptor, name, fd, err)
	}
	if input {
		if err := unix.SetNonblock(fd, true); err != nil {
			return nil, fmt.Errorf("%w: %s fd %d: %v", ErrBadDescriptor, name, fd, err)
		}
	}
	f := os.NewFile(uintptr(fd), name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s fd %d", ErrBadDescriptor, name, fd)
	}
	return f, nil
}
