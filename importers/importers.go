// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package importers

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/golox/lox"
)

// StdinName is the script name that reads from Stdin.
const StdinName = "-"

// FileImporter reads script files from the file system. Relative names are
// resolved against WorkDir.
type FileImporter struct {
	WorkDir string
	// Stdin is read for StdinName, os.Stdin if nil.
	Stdin io.Reader
}

// Name returns the absolute path of the script, or "(stdin)".
func (m *FileImporter) Name(name string) string {
	if name == StdinName {
		return "(stdin)"
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.WorkDir, path)
		if p, err := filepath.Abs(path); err == nil {
			path = p
		}
	}
	return path
}

// Import returns the content of the named script with a leading shebang line
// turned into a comment. Read failures are wrapped with lox.ErrIO.
func (m *FileImporter) Import(name string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if name == StdinName {
		r := m.Stdin
		if r == nil {
			r = os.Stdin
		}
		data, err = io.ReadAll(r)
	} else {
		data, err = os.ReadFile(m.Name(name))
	}
	if err != nil {
		return nil, lox.ErrIO.Wrap(err)
	}
	Shebang2Slashes(data)
	return data, nil
}

// Shebang2Slashes replaces "#!" at the start of data with "//" so the line
// is scanned as a comment. The length of data is unchanged.
func Shebang2Slashes(data []byte) {
	if bytes.HasPrefix(data, []byte("#!")) {
		copy(data, "//")
	}
}
