//go:build linux

package osd

import "golang.org/x/sys/unix"

// threadNice returns the nice value of the calling OS thread.
func threadNice() (int, error) {
	// The raw syscall reports 20-nice.
	prio, err := unix.Getpriority(unix.PRIO_PROCESS, unix.Gettid())
	if err != nil {
		return 0, err
	}
	return 20 - prio, nil
}

// setThreadNice applies nice to the calling OS thread only.
func setThreadNice(nice int) error {
	return unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), nice)
}
