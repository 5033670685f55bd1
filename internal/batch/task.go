package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtension is the image extension accepted when none is configured.
const DefaultExtension = ".png"

// ErrNoEligibleFiles is returned when the input directory holds no file
// with the accepted extension.
var ErrNoEligibleFiles = errors.New("no eligible image files found")

// InputDirError reports that the input directory cannot be listed.
type InputDirError struct {
	Dir string
	Err error
}

func (e *InputDirError) Error() string {
	return fmt.Sprintf("input directory %s: %v", e.Dir, e.Err)
}

func (e *InputDirError) Unwrap() error {
	return e.Err
}

// ImageTask is one file selected for recognition.
type ImageTask struct {
	Path string
	Name string
}

// NormalizeExtension lowercases ext and ensures a leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Enumerate lists the regular files in dir whose extension matches ext,
// ignoring case, sorted by name. Subdirectories are not descended into.
func Enumerate(dir, ext string) ([]ImageTask, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &InputDirError{Dir: dir, Err: err}
	}

	ext = NormalizeExtension(ext)

	// os.ReadDir returns entries sorted by filename.
	var tasks []ImageTask
	for _, e := range entries {
		if strings.ToLower(filepath.Ext(e.Name())) != ext {
			continue
		}

		path := filepath.Join(dir, e.Name())
		if !isRegular(path, e) {
			continue
		}
		tasks = append(tasks, ImageTask{Path: path, Name: e.Name()})
	}

	return tasks, nil
}

// isRegular follows symlinks so a linked image is still eligible.
func isRegular(path string, e os.DirEntry) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
