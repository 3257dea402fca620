package core

import (
	"context"
)

// DatasetSpec is one named table produced by a source run
type DatasetSpec struct {
	// Name is unique within a run
	Name string `json:"name"`
	// Content is the opaque cache key handed to the host; it is never executed
	Content     string       `json:"content"`
	Rows        []Record     `json:"rows"`
	ColumnTypes []ColumnType `json:"columnTypes"`
}

// RowCount returns the number of rows
func (d *DatasetSpec) RowCount() int {
	return len(d.Rows)
}

// ColumnNames returns the declared column names in declaration order
func (d *DatasetSpec) ColumnNames() []string {
	names := make([]string, len(d.ColumnTypes))
	for i, c := range d.ColumnTypes {
		names[i] = c.Name
	}
	return names
}

// Column looks up a declared column by name
func (d *DatasetSpec) Column(name string) (ColumnType, bool) {
	for _, c := range d.ColumnTypes {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnType{}, false
}

// QueryResult is the materialized answer of a simple run
type QueryResult struct {
	Rows             []Record     `json:"rows"`
	ColumnTypes      []ColumnType `json:"columnTypes"`
	ExpectedRowCount int          `json:"expectedRowCount"`
}

// Emission is one event of an advanced run: either a finished dataset or
// the error that prevented it.
type Emission struct {
	// Index is the dataset's position in the run order
	Index   int
	Name    string
	Dataset *DatasetSpec
	Err     error
}

// Failed reports whether the emission carries an error
func (e Emission) Failed() bool {
	return e.Err != nil
}

// DatasetStream delivers emissions in run order. The channel is closed after
// the last emission.
type DatasetStream struct {
	Emissions <-chan Emission
}

// Collect drains the stream, stopping early if ctx ends
func (s *DatasetStream) Collect(ctx context.Context) ([]Emission, error) {
	var out []Emission
	for {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case e, ok := <-s.Emissions:
			if !ok {
				return out, nil
			}
			out = append(out, e)
		}
	}
}
