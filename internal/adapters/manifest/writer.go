// Package manifest serializes samples to JSON and CSV manifest files.
package manifest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/EBB2675/curator/internal/domain/model"
	"github.com/EBB2675/curator/pkg/logger"
	"github.com/EBB2675/curator/pkg/metrics"
)

const manifestFileMode = 0o644

// csvHeader fixes the manifest column order.
var csvHeader = []string{"entry_id", "upload_id", "mainfile", "main_author", "system", "structural_type"}

// Writer emits one JSON and one CSV manifest per sample, named by the
// requested size. Files are written to a temp file in the target directory
// and renamed into place so readers never observe partial manifests.
type Writer struct {
	dir    string
	logger logger.Logger
}

// NewWriter creates a manifest writer with configuration options.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		dir:    ".",
		logger: logger.Get().Named("manifest"),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write emits both manifest formats for a sample of the given requested
// size. The sample's order is preserved in both files.
func (w *Writer) Write(ctx context.Context, size int, sample []model.Record) error {
	jsonPath := filepath.Join(w.dir, fmt.Sprintf("sample_mainauthor_%d.json", size))
	if err := w.writeJSON(jsonPath, sample); err != nil {
		metrics.RecordManifestWriteError()
		return fmt.Errorf("%w: %w", ErrWriteManifest, err)
	}
	metrics.RecordManifestWritten("json")
	w.logger.Info(ctx, "wrote JSON manifest", logger.String("path", jsonPath), logger.Int("records", len(sample)))

	csvPath := filepath.Join(w.dir, fmt.Sprintf("sample_mainauthor_%d.csv", size))
	if err := w.writeCSV(csvPath, sample); err != nil {
		metrics.RecordManifestWriteError()
		return fmt.Errorf("%w: %w", ErrWriteManifest, err)
	}
	metrics.RecordManifestWritten("csv")
	w.logger.Info(ctx, "wrote CSV manifest", logger.String("path", csvPath), logger.Int("records", len(sample)))

	return nil
}

func (w *Writer) writeJSON(path string, sample []model.Record) error {
	// Marshal the slice directly; an empty sample still yields a valid array.
	records := sample
	if records == nil {
		records = []model.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return w.writeAtomic(path, data)
}

func (w *Writer) writeCSV(path string, sample []model.Record) error {
	tmp, err := os.CreateTemp(w.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.Write(csvHeader); err != nil {
		tmp.Close()
		return err
	}
	for _, r := range sample {
		row := []string{r.EntryID, r.UploadID, r.Mainfile, r.MainAuthor, r.System, r.StructuralType}
		if err := cw.Write(row); err != nil {
			tmp.Close()
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), manifestFileMode); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (w *Writer) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(w.dir, filepath.Base(path)+".tmp-*")
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
	if err := os.Chmod(tmp.Name(), manifestFileMode); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
