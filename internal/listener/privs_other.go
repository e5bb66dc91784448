//go:build !linux
// +build !linux

package listener

import "github.com/rs/zerolog"

// RestrictPrivileges is a no-op off Linux; PR_SET_NO_NEW_PRIVS is a Linux
// feature (kernel 3.5+).
func RestrictPrivileges(log zerolog.Logger) {
}
