// Package extras locates the host's extras output folder and names files in it.
package extras

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

var (
	// ErrNoOutputDir means the base directory has no output or outputs child.
	ErrNoOutputDir = errors.New("output folder is missing")
	// ErrNoExtrasDir means the output folder has no subdirectory containing "extra".
	ErrNoExtrasDir = errors.New("extras or extras-images folder is missing")
)

// outputNames are the accepted output folder names, in order of preference.
var outputNames = []string{"output", "outputs"}

const extraMarker = "extra"

// Locate returns the extras folder under baseDir: a subdirectory whose name
// contains "extra", inside a direct child of baseDir named output or outputs.
// Failures are logged and returned; they are never fatal.
func Locate(baseDir string) (string, error) {
	out, err := findOutput(baseDir)
	if err != nil {
		klog.Errorf("realartifact: %v", err)
		return "", err
	}

	p, err := findExtras(out)
	if err != nil {
		klog.Errorf("realartifact: %v", err)
		return "", err
	}

	klog.V(1).Infof("realartifact: found extra images folder at: %s", p)
	return p, nil
}

func findOutput(baseDir string) (string, error) {
	root := filepath.Clean(baseDir)
	found := map[string]string{}

	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path == root {
				return nil
			}
			isDir, err := de.IsDirOrSymlinkToDir()
			if err == nil && isDir && filepath.Dir(path) == root {
				for _, n := range outputNames {
					if de.Name() == n {
						found[n] = path
					}
				}
			}
			// Only direct children are candidates.
			return godirwalk.SkipThis
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			klog.V(1).Infof("skipping %s: %v", path, err)
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w in %s: %w", ErrNoOutputDir, baseDir, err)
	}

	for _, n := range outputNames {
		if p, ok := found[n]; ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNoOutputDir, baseDir)
}

func findExtras(outDir string) (string, error) {
	des, err := godirwalk.ReadDirents(outDir, nil)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", outDir, err)
	}
	sort.Sort(des)

	for _, de := range des {
		isDir, err := de.IsDirOrSymlinkToDir()
		if err != nil || !isDir {
			continue
		}
		if strings.Contains(de.Name(), extraMarker) {
			return filepath.Join(outDir, de.Name()), nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNoExtrasDir, outDir)
}
