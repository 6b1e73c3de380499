package render

import (
	"fmt"
	"go/format"
	"path"
	"strings"
)

// File is one generated file, relative to the output directory
type File struct {
	Path    string
	Content []byte
}

// FileSet collects the files and warnings of one render. Paths are unique,
// slash-separated and relative.
type FileSet struct {
	files    []File
	index    map[string]int
	warnings []string
}

// NewFileSet creates an empty FileSet
func NewFileSet() *FileSet {
	return &FileSet{index: map[string]int{}}
}

// Add adds a file. Absolute paths, paths leaving the output directory and
// duplicates are rejected.
func (s *FileSet) Add(name string, content []byte) error {
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	switch {
	case name == "" || clean == ".":
		return fmt.Errorf("empty file path")
	case path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../"):
		return fmt.Errorf("file path %q leaves the output directory", name)
	}
	if _, dup := s.index[clean]; dup {
		return fmt.Errorf("file %q generated twice", clean)
	}
	s.index[clean] = len(s.files)
	s.files = append(s.files, File{Path: clean, Content: append([]byte(nil), content...)})
	return nil
}

// AddString adds a text file
func (s *FileSet) AddString(name, content string) error {
	return s.Add(name, []byte(content))
}

// AddGo formats Go source before adding it. Source that does not parse is an
// error.
func (s *FileSet) AddGo(name string, src string) error {
	formatted, err := format.Source([]byte(src))
	if err != nil {
		return fmt.Errorf("generated %s is not valid Go: %w", name, err)
	}
	return s.Add(name, formatted)
}

// Warn records an unsupported-feature warning
func (s *FileSet) Warn(format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}

// Files returns the files in the order they were added
func (s *FileSet) Files() []File {
	return append([]File(nil), s.files...)
}

// File returns the file at path
func (s *FileSet) File(name string) (File, bool) {
	i, ok := s.index[path.Clean(name)]
	if !ok {
		return File{}, false
	}
	return s.files[i], true
}

// Paths returns the file paths in the order they were added
func (s *FileSet) Paths() []string {
	out := make([]string, len(s.files))
	for i, f := range s.files {
		out[i] = f.Path
	}
	return out
}

// Warnings returns the recorded warnings
func (s *FileSet) Warnings() []string {
	return append([]string(nil), s.warnings...)
}

// Len returns the number of files
func (s *FileSet) Len() int {
	return len(s.files)
}
