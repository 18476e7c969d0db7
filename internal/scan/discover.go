package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/charlievieth/fastwalk"
)

// Candidate is a discovered file descriptor, per §4.B step 1.
type Candidate struct {
	Path      string
	Size      int64
	ModTime   int64 // unix nanoseconds
	Extension string
}

// mediaExtensions are the frozen per-family extension sets named in §4.B.
var mediaExtensions = map[string]map[string]bool{
	"video": setOf(".mkv", ".mp4", ".m4v", ".avi", ".mov", ".wmv", ".ts", ".webm"),
	"audio": setOf(".mp3", ".flac", ".m4a", ".ogg", ".opus", ".wav", ".aac"),
	"image": setOf(".jpg", ".jpeg", ".png", ".webp", ".heic"),
	"book":  setOf(".epub", ".mobi", ".azw3", ".pdf"),
	"comic": setOf(".cbz", ".cbr"),
	"game":  setOf(".iso", ".chd", ".nes", ".sfc", ".gba", ".n64"),
}

func setOf(exts ...string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[e] = true
	}
	return m
}

// ClassifyExtension returns the media family for ext (lowercased, with
// leading dot), or "" if ext isn't recognized by any family.
func ClassifyExtension(ext string) string {
	ext = strings.ToLower(ext)
	for family, set := range mediaExtensions {
		if set[ext] {
			return family
		}
	}
	return ""
}

// Discover walks roots breadth-first-ish via fastwalk's concurrent walker,
// following symlinks once and detecting cycles via a visited-inode set,
// per §4.B step 1. Every root must be an existing, readable directory;
// otherwise Discover returns the error and nothing is walked.
func Discover(ctx context.Context, roots []string, progress *Progress) (<-chan Candidate, error) {
	for _, root := range roots {
		f, err := os.Open(root)
		if err != nil {
			return nil, err
		}
		info, err := f.Stat()
		f.Close()
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, &fs.PathError{Op: "scan", Path: root, Err: syscall.ENOTDIR}
		}
	}

	out := make(chan Candidate, 256)

	go func() {
		defer close(out)
		var visited sync.Map // map[[2]uint64]bool, keyed by (dev,inode) composite
		processed := 0

		conf := &fastwalk.Config{Follow: true}
		for _, root := range roots {
			if ctx.Err() != nil {
				return
			}
			walkErr := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if err != nil {
					return nil // a single-file failure is skipped, not fatal, per §4.B
				}
				if d.IsDir() {
					return nil
				}

				info, err := d.Info()
				if err != nil {
					return nil
				}

				key := inodeKey(info)
				if key != ([2]uint64{}) {
					if _, seen := visited.LoadOrStore(key, true); seen {
						return nil
					}
				}

				ext := filepath.Ext(path)
				if ClassifyExtension(ext) == "" {
					return nil
				}

				candidate := Candidate{
					Path:      path,
					Size:      info.Size(),
					ModTime:   info.ModTime().UnixNano(),
					Extension: ext,
				}
				select {
				case out <- candidate:
					processed++
					progress.Report("Discover", processed, 0)
				case <-ctx.Done():
					return ctx.Err()
				}
				return nil
			})
			if walkErr != nil && walkErr != ctx.Err() {
				// roots were checked before the walk began; a root that fails
				// once the walk is under way ends the walk here, and the
				// candidates already sent are still processed.
				return
			}
		}
	}()

	return out, nil
}

func inodeKey(info os.FileInfo) [2]uint64 {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return [2]uint64{}
	}
	return [2]uint64{uint64(stat.Dev), uint64(stat.Ino)}
}
