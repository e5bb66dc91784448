//go:build windows
// +build windows

package paths

import "os"

// verifyFileOwner is a no-op on Windows; ownership is enforced through the
// per-user temp directory ACLs instead.
func verifyFileOwner(info os.FileInfo) error {
	return nil
}
