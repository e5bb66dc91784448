//go:build !windows
// +build !windows

package paths

import (
	"fmt"
	"os"
	"syscall"
)

// verifyFileOwner confirms the file is owned by the current effective user.
func verifyFileOwner(info os.FileInfo) error {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fmt.Errorf("unable to read ownership information")
	}
	if int(stat.Uid) != os.Geteuid() {
		return fmt.Errorf("owned by uid %d, not current user (uid %d)", stat.Uid, os.Geteuid())
	}
	return nil
}
