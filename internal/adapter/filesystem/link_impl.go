package filesystem

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/user/lesson-harvester/internal/entity"
	"github.com/user/lesson-harvester/internal/repository"
)

// Link list formats.
const (
	FormatText   = "text"
	FormatPython = "python"
	FormatJSON   = "json"
)

// PythonListName is the variable the python format assigns.
const PythonListName = "LESSON_URLS"

type LinkWriter struct {
	path   string
	format string
}

var _ repository.LinkSink = (*LinkWriter)(nil)

func NewLinkWriter(path, format string) (*LinkWriter, error) {
	switch format {
	case FormatText, FormatPython, FormatJSON:
	default:
		return nil, fmt.Errorf("unknown link list format %q", format)
	}
	return &LinkWriter{path: path, format: format}, nil
}

// WriteLinks replaces the file with the URLs of nodes in the given order.
func (w *LinkWriter) WriteLinks(_ context.Context, nodes []entity.CatalogNode) error {
	urls := make([]string, 0, len(nodes))
	for _, n := range nodes {
		urls = append(urls, n.URL)
	}

	var buf bytes.Buffer
	switch w.format {
	case FormatText:
		for _, u := range urls {
			buf.WriteString(u)
			buf.WriteByte('\n')
		}
	case FormatPython:
		buf.WriteString(PythonListName + " = [\n")
		for _, u := range urls {
			buf.WriteString("    " + strconv.Quote(u) + ",\n")
		}
		buf.WriteString("]\n")
	case FormatJSON:
		data, err := json.MarshalIndent(urls, "", "  ")
		if err != nil {
			return err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	return writeFileAtomic(w.path, buf.Bytes())
}

// writeFileAtomic writes through a temp file so readers never see a partial list.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
