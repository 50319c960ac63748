//go:build linux

package scan

import (
	"os"
	"syscall"
	"time"
)

// statExtra pulls the inode number and the access/change times out of the
// platform stat structure
func statExtra(info os.FileInfo) (address int64, atime, ctime time.Time, ok bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, time.Time{}, time.Time{}, false
	}
	address = int64(st.Ino)
	atime = time.Unix(st.Atim.Sec, st.Atim.Nsec).UTC()
	ctime = time.Unix(st.Ctim.Sec, st.Ctim.Nsec).UTC()
	return address, atime, ctime, true
}
