//go:build !linux

package threadlog

func currentTID() int {
	return 0
}
