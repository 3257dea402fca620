// Package schema checks emitted datasets against their declared column types
// and re-derives types for columns declared as inferred.
package schema

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
)

// Violation describes one way a dataset departs from its declared columns
type Violation struct {
	Column string `json:"column"`
	// Row is the offending row index, -1 for a column missing from every row
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (v Violation) String() string {
	if v.Row < 0 {
		return fmt.Sprintf("%s: %s", v.Column, v.Reason)
	}
	return fmt.Sprintf("%s[row %d]: %s", v.Column, v.Row, v.Reason)
}

// Violations lists every departure of ds from its declared columns. A
// declared column must be present in at least one row; an empty row set has
// no violations. Precise columns must also hold values of the declared kind
// in every row where they are non-null. Inferred columns are checked for
// presence only.
func Violations(ds *core.DatasetSpec) []Violation {
	if ds == nil || len(ds.Rows) == 0 {
		return nil
	}

	var out []Violation
	for _, col := range ds.ColumnTypes {
		present := false
		for i, row := range ds.Rows {
			v, ok := row[col.Name]
			if !ok {
				continue
			}
			present = true
			if col.TypeFidelity != core.TypeFidelityPrecise || v.IsNull() {
				continue
			}
			if !Conforms(col.EvidenceType, v) {
				out = append(out, Violation{
					Column: col.Name,
					Row:    i,
					Reason: fmt.Sprintf("declared %s but found %s", col.EvidenceType, v.Kind()),
				})
			}
		}
		if !present {
			out = append(out, Violation{Column: col.Name, Row: -1, Reason: "declared column is absent from every row"})
		}
	}
	return out
}

// Check returns a Schema error naming the dataset and the first offending
// column when ds does not conform
func Check(ds *core.DatasetSpec) error {
	violations := Violations(ds)
	if len(violations) == 0 {
		return nil
	}

	reasons := make([]string, 0, len(violations))
	for i, v := range violations {
		if i == 5 {
			reasons = append(reasons, fmt.Sprintf("and %d more", len(violations)-i))
			break
		}
		reasons = append(reasons, v.String())
	}

	return errors.Newf(errors.ErrorTypeSchema, "dataset %q does not match its declared columns: %s",
		ds.Name, strings.Join(reasons, "; ")).
		WithDetail("dataset", ds.Name).
		WithDetail("column", violations[0].Column).
		WithDetail("violations", len(violations))
}

// Conforms reports whether a non-null value fits the declared type. Nested
// arrays and objects are accepted for strings.
func Conforms(t core.EvidenceType, v core.Value) bool {
	switch t {
	case core.EvidenceTypeNumber:
		return v.Kind() == core.KindNumber
	case core.EvidenceTypeString:
		return v.Kind() == core.KindString || v.Kind() == core.KindJSON
	case core.EvidenceTypeBoolean:
		return v.Kind() == core.KindBool
	case core.EvidenceTypeDate:
		_, ok := v.AsTime()
		return ok
	default:
		return false
	}
}
