//go:build !linux

package scan

import (
	"os"
	"time"
)

// statExtra has no portable implementation off Linux; matching then relies
// on the content-hash pass instead of storage addresses
func statExtra(info os.FileInfo) (address int64, atime, ctime time.Time, ok bool) {
	return 0, time.Time{}, time.Time{}, false
}
