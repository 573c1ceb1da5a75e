package pack

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Kind of a pack entry, by extension.
const (
	KindAxo = "axo"
	KindScn = "scn"
)

type FileInfo struct {
	Name string
	Size int64
	Kind string
}

// Pack serves model files out of a single directory. Nothing is cached:
// decoders are fast relative to disk and files may be replaced between
// requests while re-ripping.
type Pack struct {
	dir string
}

func MountDir(dir string) (*Pack, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to stat %q", dir)
	}
	if !st.IsDir() {
		return nil, errors.Errorf("%q is not a directory", dir)
	}
	return &Pack{dir: dir}, nil
}

func KindOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".axo":
		return KindAxo
	case ".scn":
		return KindScn
	}
	return ""
}

// List returns the decodable files, sorted by name.
func (p *Pack) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to list %q", p.dir)
	}
	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		kind := KindOf(e.Name())
		if kind == "" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, FileInfo{Name: e.Name(), Size: info.Size(), Kind: kind})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Read loads one pack file. Names with path separators are rejected so a
// request cannot escape the mounted directory.
func (p *Pack) Read(name string) ([]byte, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return nil, errors.Errorf("Invalid pack file name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(p.dir, name))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read %q", name)
	}
	return data, nil
}
