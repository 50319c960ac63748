//go:build windows

package lock

import "golang.org/x/sys/windows"

// probeProcess reports on the liveness of pid by opening it with the
// narrowest query right. Only the open outcome matters: success or an
// access-denied error means the process is running, anything else means
// it is gone.
func probeProcess(pid int) error {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return err
	}
	return windows.CloseHandle(handle)
}
