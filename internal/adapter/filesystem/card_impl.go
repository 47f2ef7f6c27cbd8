package filesystem

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/lesson-harvester/internal/entity"
	"github.com/user/lesson-harvester/internal/repository"
)

// CSVCardWriter appends card rows to a UTF-8 CSV file with a header row.
type CSVCardWriter struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

var _ repository.CardSink = (*CSVCardWriter)(nil)

// NewCSVCardWriter truncates path unless appendRows is set. The header is written
// whenever the file starts empty.
func NewCSVCardWriter(path string, appendRows bool) (*CSVCardWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create card output dir: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendRows {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open card output: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	cw := &CSVCardWriter{file: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := cw.write([][]string{entity.CardColumns}); err != nil {
			f.Close()
			return nil, err
		}
	}
	return cw, nil
}

// AppendCards writes one row per card and flushes, so rows survive a crash
// later in the run.
func (c *CSVCardWriter) AppendCards(_ context.Context, cards []entity.ContentCard) error {
	rows := make([][]string, 0, len(cards))
	for _, card := range cards {
		rows = append(rows, card.Record())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(rows)
}

func (c *CSVCardWriter) write(rows [][]string) error {
	for _, row := range rows {
		if err := c.w.Write(row); err != nil {
			return fmt.Errorf("failed to write card row: %w", err)
		}
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVCardWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.file.Close()
		return err
	}
	return c.file.Close()
}
