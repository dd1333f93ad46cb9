package source

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential tells the kernel the file is read sequentially from
// offset, which doubles readahead.
func adviseSequential(f *os.File, offset int64) error {
	return unix.Fadvise(int(f.Fd()), offset, 0, unix.FADV_SEQUENTIAL)
}
