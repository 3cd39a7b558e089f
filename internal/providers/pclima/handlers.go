package pclima

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"pclima/internal/grid"
	"pclima/internal/model"
	"pclima/internal/table"
)

// transposedHeaderRows is the number of leading rows every yearly
// CSVPontosT payload repeats.
const transposedHeaderRows = 2

type fetchFunc func(ctx context.Context, period string) ([]byte, error)

// Handler downloads, merges and saves one format.
type Handler struct {
	format  model.Format
	decode  func(data []byte) (model.Result, error)
	merge   func(acc, next model.Result) (model.Result, error)
	persist func(ctx context.Context, r model.Result, dest string) error
}

func (h *Handler) Format() model.Format {
	return h.format
}

var handlers = map[model.Format]*Handler{
	model.FormatNetCDF: {
		format:  model.FormatNetCDF,
		decode:  decodeGrid,
		merge:   mergeGrids,
		persist: persistGrid,
	},
	model.FormatCSV: {
		format:  model.FormatCSV,
		decode:  decodeCSV(model.FormatCSV),
		merge:   concatRows(0),
		persist: persistCSV,
	},
	model.FormatJSON: {
		format:  model.FormatJSON,
		decode:  decodeJSON,
		merge:   concatRows(0),
		persist: persistJSON,
	},
	model.FormatCSVPontos: {
		format:  model.FormatCSVPontos,
		decode:  decodeCSV(model.FormatCSVPontos),
		merge:   concatColumns,
		persist: persistCSV,
	},
	model.FormatCSVPontosT: {
		format:  model.FormatCSVPontosT,
		decode:  decodeCSV(model.FormatCSVPontosT),
		merge:   concatRows(transposedHeaderRows),
		persist: persistCSV,
	},
}

// download fetches a single period, or every year of interval in order,
// merging each year into the result of the previous ones. The first failure
// aborts the download.
func (h *Handler) download(ctx context.Context, log logrus.FieldLogger, fetch fetchFunc, interval model.Interval, period string) (model.Result, error) {
	if interval.IsZero() {
		return h.fetchOne(ctx, fetch, period)
	}

	var acc model.Result
	for i, year := range interval.Years() {
		log.WithField("year", year).Info("downloading year")
		next, err := h.fetchOne(ctx, fetch, fmt.Sprintf("%04d", year))
		if err != nil {
			return model.Result{}, fmt.Errorf("pclima: year %d: %w", year, err)
		}
		if i == 0 {
			acc = next
			continue
		}
		acc, err = h.merge(acc, next)
		if err != nil {
			return model.Result{}, fmt.Errorf("pclima: merge year %d: %w", year, err)
		}
	}
	return acc, nil
}

func (h *Handler) fetchOne(ctx context.Context, fetch fetchFunc, period string) (model.Result, error) {
	body, err := fetch(ctx, period)
	if err != nil {
		return model.Result{}, err
	}
	result, err := h.decode(body)
	if err != nil {
		return model.Result{}, fmt.Errorf("pclima: decode %s: %w", h.format, err)
	}
	return result, nil
}

func decodeGrid(data []byte) (model.Result, error) {
	g, err := grid.Decode(data)
	if err != nil {
		return model.Result{}, err
	}
	return model.Result{Format: model.FormatNetCDF, Grid: g}, nil
}

func decodeCSV(format model.Format) func([]byte) (model.Result, error) {
	return func(data []byte) (model.Result, error) {
		t, err := table.DecodeCSV(data)
		if err != nil {
			return model.Result{}, err
		}
		return model.Result{Format: format, Table: t}, nil
	}
}

func decodeJSON(data []byte) (model.Result, error) {
	t, err := table.DecodeJSON(data)
	if err != nil {
		return model.Result{}, err
	}
	return model.Result{Format: model.FormatJSON, Table: t}, nil
}

func mergeGrids(acc, next model.Result) (model.Result, error) {
	merged, err := grid.Merge(acc.Grid, next.Grid)
	if err != nil {
		return model.Result{}, err
	}
	return model.Result{Format: acc.Format, Grid: merged}, nil
}

// concatRows stacks next under acc after dropping skip leading rows of next.
func concatRows(skip int) func(acc, next model.Result) (model.Result, error) {
	return func(acc, next model.Result) (model.Result, error) {
		tail := next.Table
		if skip > 0 {
			tail = tail.DropHead(skip)
		}
		return model.Result{Format: acc.Format, Table: table.ConcatRows(acc.Table, tail)}, nil
	}
}

func concatColumns(acc, next model.Result) (model.Result, error) {
	return model.Result{Format: acc.Format, Table: table.ConcatColumns(acc.Table, next.Table)}, nil
}
