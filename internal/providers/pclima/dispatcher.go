package pclima

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pclima/internal/grid"
	"pclima/internal/model"
	"pclima/internal/store/sqlite"
	"pclima/internal/table"
)

// Select returns the handler of a format.
func Select(format model.Format) (*Handler, error) {
	handler, ok := handlers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return handler, nil
}

// Persist writes r to dest with the writer of r's own format. Existing files
// are replaced.
func Persist(ctx context.Context, r model.Result, dest string) error {
	if strings.TrimSpace(dest) == "" {
		return &ValidationError{Field: "destination", Message: "is required"}
	}
	handler, err := Select(r.Format)
	if err != nil {
		return err
	}
	if err := checkResult(r); err != nil {
		return err
	}
	return handler.persist(ctx, r, dest)
}

func checkResult(r model.Result) error {
	switch {
	case r.Format == model.FormatNetCDF && r.Grid == nil:
		return fmt.Errorf("%w: %s result holds no grid", ErrFormatMismatch, r.Format)
	case r.Format.IsTable() && r.Table == nil:
		return fmt.Errorf("%w: %s result holds no table", ErrFormatMismatch, r.Format)
	case r.Table != nil:
		if err := r.Table.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrFormatMismatch, err)
		}
	}
	return nil
}

func persistGrid(_ context.Context, r model.Result, dest string) error {
	return grid.Write(dest, r.Grid)
}

func persistCSV(ctx context.Context, r model.Result, dest string) error {
	if isDatabase(dest) {
		return persistTable(ctx, r, dest)
	}
	return writeFile(dest, func(w io.Writer) error {
		return table.WriteCSV(w, r.Table)
	})
}

func persistJSON(ctx context.Context, r model.Result, dest string) error {
	if isDatabase(dest) {
		return persistTable(ctx, r, dest)
	}
	return writeFile(dest, func(w io.Writer) error {
		return table.WriteJSON(w, r.Table)
	})
}

// persistTable replaces the table named after the result format.
func persistTable(ctx context.Context, r model.Result, dest string) error {
	st, err := sqlite.New(dest)
	if err != nil {
		return err
	}
	defer st.Close()

	return st.SaveTable(ctx, string(r.Format), r.Table)
}

func isDatabase(dest string) bool {
	switch strings.ToLower(filepath.Ext(dest)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	default:
		return false
	}
}

func writeFile(dest string, write func(io.Writer) error) (err error) {
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
	}()
	return write(file)
}
