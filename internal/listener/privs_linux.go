//go:build linux
// +build linux

package listener

import (
	"syscall"

	"github.com/rs/zerolog"
)

// RestrictPrivileges sets PR_SET_NO_NEW_PRIVS so neither this process nor
// the shell commands it spawns can gain privileges through setuid binaries
// or file capabilities. The listener executes dashboard-supplied commands;
// this bounds what a compromised dashboard can reach.
func RestrictPrivileges(log zerolog.Logger) {
	// PR_SET_NO_NEW_PRIVS = 38, value = 1 to enable
	if _, _, errno := syscall.RawSyscall(syscall.SYS_PRCTL, 38, 1, 0); errno != 0 {
		log.Warn().Str("errno", errno.Error()).Msg("failed to set PR_SET_NO_NEW_PRIVS")
	}
}
