package gen

import (
	"fmt"
	"os"
	"path/filepath"
)

// File is a rendered output file.
type File struct {
	Path string // slash-separated, relative to the target directory
	Data []byte
}

// writeTarget replaces root/name with files. The files are written to a
// temporary directory under root that is renamed into place on success
// and removed on failure, so root/name is either the old or the new
// output and never a mix.
func writeTarget(root, name string, files []File) (err error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(root, "."+name+"-")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(tmp)
		}
	}()
	if err := os.Chmod(tmp, 0o755); err != nil {
		return err
	}

	for _, f := range files {
		path := filepath.Join(tmp, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return err
		}
	}

	dst := filepath.Join(root, name)
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("removing old output: %w", err)
	}
	return os.Rename(tmp, dst)
}

// checkPath rejects unit paths that would escape the target directory.
func checkPath(target, path string) error {
	if path == "" || !filepath.IsLocal(filepath.FromSlash(path)) {
		return fmt.Errorf("target %s: invalid output path %q", target, path)
	}
	return nil
}
