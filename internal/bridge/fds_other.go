//go:build !unix

package bridge

import (
	"fmt"
	"os"
)

func openStream(fd int, name string, _ bool) (*os.File, error) {
	f := os.NewFile(uintptr(fd), name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s fd %d", ErrBadDescriptor, name, fd)
	}
	return f, nil
}
