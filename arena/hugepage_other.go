//go:build darwin || freebsd || netbsd || openbsd

package arena

// adviseHugePages is a no-op where MADV_HUGEPAGE does not exist.
func adviseHugePages([]byte) error {
	return nil
}
