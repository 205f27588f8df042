//go:build unix

package sysadapter

import (
	"io/fs"
	"syscall"
	"time"

	"tidy-go/internal/safety"
)

// fillStatData copies Unix-specific stat fields into the FileInfo.
func fillStatData(fi *safety.FileInfo, info fs.FileInfo) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	fi.UID = int64(stat.Uid)
	fi.GID = int64(stat.Gid)
	fi.AccessTime = time.Unix(stat.Atim.Sec, stat.Atim.Nsec)
}
