package media

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
)

var (
	// ErrNotFound signals that the requested input directory does not exist.
	ErrNotFound = errors.New("directory not found")
	// ErrNotDirectory signals that the input path exists but is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

// CheckDir verifies that root exists and is a directory.
func CheckDir(root string) error {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, root)
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}
	return nil
}

// DiscoverImages returns a lazy sequence of image paths found under root.
//
// Without recursion only direct children are listed. With recursion the whole
// subtree is walked in lexical order. Symlinked directories are never entered,
// so link cycles cannot loop; symlinks pointing at regular image files are
// yielded. Errors yielded by the sequence are per-entry problems (for example an
// unreadable subdirectory) and carry the offending path; the caller decides
// whether to keep iterating.
func DiscoverImages(root string, recursive bool) (iter.Seq2[string, error], error) {
	if err := CheckDir(root); err != nil {
		return nil, err
	}
	if recursive {
		return walkTree(root), nil
	}
	return listDir(root), nil
}

func listDir(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		entries, err := os.ReadDir(root)
		if err != nil {
			yield(root, fmt.Errorf("read dir %s: %w", root, err))
			return
		}
		for _, entry := range entries {
			path := filepath.Join(root, entry.Name())
			if !isImageEntry(path, entry) {
				continue
			}
			if !yield(path, nil) {
				return
			}
		}
	}
}

func walkTree(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		// WalkDir does not descend into a symlinked root, so walk its target and
		// report paths under the name the caller used.
		resolved, err := filepath.EvalSymlinks(root)
		if err != nil {
			yield(root, fmt.Errorf("resolve %s: %w", root, err))
			return
		}
		display := func(path string) string {
			rel, err := filepath.Rel(resolved, path)
			if err != nil {
				return path
			}
			return filepath.Join(root, rel)
		}

		stopped := false
		err = filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == resolved {
					return err
				}
				shown := display(path)
				if !yield(shown, fmt.Errorf("walk %s: %w", shown, err)) {
					stopped = true
					return fs.SkipAll
				}
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !isImageEntry(path, d) {
				return nil
			}
			if !yield(display(path), nil) {
				stopped = true
				return fs.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			yield(root, fmt.Errorf("walk %s: %w", root, err))
		}
	}
}

func isImageEntry(path string, d fs.DirEntry) bool {
	if !SupportedImage(path) {
		return false
	}
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
