package extras

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

var digitsRe = regexp.MustCompile(`[0-9]+`)

// Suffix is appended to the sequence number of every exported file.
const Suffix = "_exif.jpg"

// Filename returns the export name for sequence number n.
func Filename(n int) string {
	return fmt.Sprintf("%05d%s", n, Suffix)
}

// sequence returns the largest run of digits in name, or false if there is none.
func sequence(name string) (int, bool) {
	best, ok := 0, false
	for _, m := range digitsRe.FindAllString(name, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			klog.V(1).Infof("ignoring digit run %q in %s: %v", m, name, err)
			continue
		}
		if !ok || n > best {
			best, ok = n, true
		}
	}
	return best, ok
}

// NextFilename scans the regular files directly inside dir and returns the
// name following the highest number found, or the zero name when there is none.
// The directory listing is the only state, so concurrent callers may collide.
func NextFilename(dir string) (string, error) {
	des, err := godirwalk.ReadDirents(dir, nil)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", dir, err)
	}

	next := 0
	for _, de := range des {
		if !isFile(dir, de) {
			continue
		}
		if n, ok := sequence(de.Name()); ok && n+1 > next {
			next = n + 1
		}
	}
	return Filename(next), nil
}

// isFile reports whether de is a regular file, following symlinks.
func isFile(dir string, de *godirwalk.Dirent) bool {
	if de.IsRegular() {
		return true
	}
	if !de.IsSymlink() {
		return false
	}
	fi, err := os.Stat(filepath.Join(dir, de.Name()))
	if err != nil {
		klog.V(1).Infof("ignoring %s: %v", de.Name(), err)
		return false
	}
	return fi.Mode().IsRegular()
}
