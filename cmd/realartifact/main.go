// realartifact makes images look like poor-quality real photographs.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
	"github.com/otiai10/copy"
	"k8s.io/klog/v2"

	"github.com/tstromberg/realartifact/pkg/artifact"
	"github.com/tstromberg/realartifact/pkg/exifgen"
	"github.com/tstromberg/realartifact/pkg/extras"
)

var (
	noiseLevel     = flag.Float64("noise", artifact.DefaultNoiseLevel, "noise level in [0,1]; higher for worse quality")
	jpegQuality    = flag.Int("quality", artifact.DefaultJPEGQuality, "JPEG quality in [0,100]; lower for worse quality")
	enableExif     = flag.Bool("exif", false, "write an EXIF-annotated copy into <base>/output(s)/*extra*")
	metadataPath   = flag.String("metadata", "", "YAML file with EXIF settings (see exifgen)")
	randomMetadata = flag.Bool("random-metadata", false, "randomize EXIF settings for every image")
	baseDir        = flag.String("base", ".", "base directory searched for the extras folder")
	outDir         = flag.String("out", "", "output directory (default: overwrite inputs in place)")
	seed           = flag.Uint64("seed", 0, "random seed for reproducible output (0 = random)")
	backup         = flag.Bool("backup", false, "copy <name>.jpg to <name>.orig.jpg before it is overwritten in place")
	watchFlag      = flag.Bool("watch", false, "watch input directories and degrade new images")
	settle         = flag.Duration("settle", 500*time.Millisecond, "with --watch, wait this long after the last write before processing a file")
)

var imageExts = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

type runner struct {
	params   artifact.Params
	settings exifgen.Settings
	exporter *extras.Exporter
	rng      *rand.Rand
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if len(flag.Args()) == 0 {
		klog.Exitf("usage: %s [flags] <image or directory> ...", os.Args[0])
	}

	r := &runner{
		params: artifact.Params{
			NoiseLevel:  *noiseLevel,
			JPEGQuality: *jpegQuality,
			EnableExif:  *enableExif,
		},
		exporter: &extras.Exporter{BaseDir: *baseDir},
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	if *seed != 0 {
		r.rng = rand.New(rand.NewPCG(*seed, *seed))
	}

	if err := r.params.Validate(); err != nil {
		klog.Exitf("%v", err)
	}

	r.settings = exifgen.Default(r.rng)
	if *metadataPath != "" {
		s, err := exifgen.LoadSettings(*metadataPath)
		if err != nil {
			klog.Exitf("load metadata: %v", err)
		}
		r.settings = s
	}

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			klog.Exitf("mkdir: %v", err)
		}
	}

	paths, dirs, err := expand(flag.Args())
	if err != nil {
		klog.Exitf("inputs: %v", err)
	}

	failed := 0
	for _, p := range paths {
		if err := r.run(p); err != nil {
			klog.Errorf("%s: %v", p, err)
			failed++
		}
	}
	klog.Infof("processed %d images (%d failed)", len(paths), failed)

	if *watchFlag {
		if *outDir == "" {
			klog.Exitf("--watch requires --out so results are not reprocessed")
		}
		if slices.Contains(dirs, filepath.Clean(*outDir)) {
			klog.Exitf("--out must not be a watched directory")
		}
		if err := r.watch(dirs); err != nil {
			klog.Exitf("watch failed: %v", err)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func isImage(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.Contains(base, ".orig.") {
		return false
	}
	return slices.Contains(imageExts, strings.ToLower(filepath.Ext(path)))
}

// expand turns the command-line arguments into image paths and the
// directories that contain them.
func expand(args []string) ([]string, []string, error) {
	var paths, dirs []string
	for _, a := range args {
		fi, err := os.Stat(a)
		if err != nil {
			return nil, nil, err
		}

		if !fi.IsDir() {
			paths = append(paths, a)
			dirs = append(dirs, filepath.Clean(filepath.Dir(a)))
			continue
		}

		dirs = append(dirs, filepath.Clean(a))
		es, err := os.ReadDir(a)
		if err != nil {
			return nil, nil, fmt.Errorf("read dir: %w", err)
		}
		for _, e := range es {
			p := filepath.Join(a, e.Name())
			if !e.IsDir() && isImage(p) {
				paths = append(paths, p)
			}
		}
	}

	slices.Sort(dirs)
	return paths, slices.Compact(dirs), nil
}

// destination returns where the degraded copy of path is written.
func destination(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".jpg"
	if *outDir != "" {
		return filepath.Join(*outDir, name)
	}
	return filepath.Join(filepath.Dir(path), name)
}

// overwrites reports whether writing dest replaces the input at path.
func overwrites(path, dest string) bool {
	return filepath.Clean(path) == filepath.Clean(dest)
}

func (r *runner) run(path string) error {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}

	s := r.settings
	if *randomMetadata {
		s = exifgen.Randomize(r.rng)
	}

	res, err := artifact.Process(img, r.params, s, r.exporter, artifact.WithRand(r.rng))
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}

	dest := destination(path)
	if *backup && overwrites(path, dest) {
		ext := filepath.Ext(path)
		orig := strings.TrimSuffix(path, ext) + ".orig" + ext
		klog.V(1).Infof("backing up %s to %s", path, orig)
		if err := copy.Copy(path, orig); err != nil {
			return fmt.Errorf("backup: %w", err)
		}
	}

	if err := os.WriteFile(dest, res.JPEG, 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	klog.Infof("%s -> %s (distance %d)", path, dest, res.Distance)

	if res.ExportPath != "" {
		klog.Infof("exif copy: %s", res.ExportPath)
	}
	return nil
}

// watch degrades images created or rewritten in dirs until interrupted.
func (r *runner) watch(dirs []string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()

	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("add %s: %w", d, err)
		}
	}
	klog.Infof("watching %d dirs ...", len(dirs))

	d := newDebouncer(*settle)
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			klog.V(1).Infof("event: %v", event)
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isImage(event.Name) {
				continue
			}
			d.touch(event.Name)
		case f := <-d.ready:
			if !d.done(f) {
				continue
			}
			if err := r.run(f.path); err != nil {
				klog.Errorf("%s: %v", f.path, err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}

// debouncer coalesces bursts of events per path. A path is sent on ready
// once no touch for it has arrived for delay. touch and done must be called
// from the goroutine that receives from ready.
type debouncer struct {
	delay   time.Duration
	pending map[string]*pending
	next    int
	ready   chan fired
}

type pending struct {
	t   *time.Timer
	gen int
}

type fired struct {
	path string
	gen  int
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		pending: map[string]*pending{},
		ready:   make(chan fired),
	}
}

func (d *debouncer) touch(path string) {
	if p, ok := d.pending[path]; ok {
		p.t.Stop()
	}
	d.next++
	f := fired{path: path, gen: d.next}
	d.pending[path] = &pending{t: time.AfterFunc(d.delay, func() { d.ready <- f }), gen: f.gen}
}

// done reports whether f is the latest timer for its path, and forgets it.
// Stale timers that fired before a later touch stopped them return false.
func (d *debouncer) done(f fired) bool {
	p, ok := d.pending[f.path]
	if !ok || p.gen != f.gen {
		return false
	}
	delete(d.pending, f.path)
	return true
}
