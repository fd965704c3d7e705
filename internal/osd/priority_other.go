//go:build !linux

package osd

func threadNice() (int, error) { return 0, nil }

func setThreadNice(int) error { return nil }
