package schema

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
)

// Formats detected in column values
const (
	FormatDate        = "date"
	FormatTimestamp   = "timestamp"
	FormatUnixSeconds = "unix_seconds"
	FormatEmail       = "email"
	FormatURL         = "url"
	FormatUUID        = "uuid"
	FormatJSON        = "json"
)

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), // YYYY-MM-DD
		regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`), // YYYY/MM/DD
	}

	timestampPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`), // ISO 8601
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`), // SQL timestamp
	}

	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	urlPattern   = regexp.MustCompile(`^https?://[^\s]+$`)
	uuidPattern  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// Unix seconds between 2001-09-09 and 2286-11-20 have ten digits
const (
	minUnixSeconds = 1_000_000_000
	maxUnixSeconds = 9_999_999_999
)

// InferredType represents a type inference result with confidence
type InferredType struct {
	Column        string            `json:"column"`
	EvidenceType  core.EvidenceType `json:"evidenceType"`
	Format        string            `json:"format,omitempty"`
	Confidence    float64           `json:"confidence"`
	Nullable      bool              `json:"nullable"`
	Present       int               `json:"present"`
	Cardinality   int               `json:"cardinality"`
	NumericStats  *NumericStats     `json:"numeric_stats,omitempty"`
	StringStats   *StringStats      `json:"string_stats,omitempty"`
	TemporalStats *TemporalStats    `json:"temporal_stats,omitempty"`
}

// NumericStats holds statistics for numeric types
type NumericStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// StringStats holds statistics for string types
type StringStats struct {
	MinLength int     `json:"min_length"`
	MaxLength int     `json:"max_length"`
	AvgLength float64 `json:"avg_length"`
}

// TemporalStats holds statistics for temporal types
type TemporalStats struct {
	MinDate time.Time `json:"min_date"`
	MaxDate time.Time `json:"max_date"`
}

// confidenceThreshold is the share of non-null values that must agree on a
// type before it wins over the string fallback
const confidenceThreshold = 0.95

// Infer derives the type of column from the values in rows. Rows missing the
// column are ignored; null values only make it nullable. A column with no
// non-null values infers as string with zero confidence.
func Infer(rows []core.Record, column string) *InferredType {
	inferred := &InferredType{Column: column, EvidenceType: core.EvidenceTypeString}

	values := make([]core.Value, 0, len(rows))
	for _, row := range rows {
		v, ok := row[column]
		if !ok {
			continue
		}
		inferred.Present++
		if v.IsNull() {
			inferred.Nullable = true
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		inferred.Nullable = true
		return inferred
	}

	typeCounts := make(map[core.EvidenceType]int)
	for _, v := range values {
		typeCounts[detectValueType(v)]++
	}

	// Ties resolve in the order number, boolean, date, string
	dominant, maxCount := core.EvidenceTypeString, 0
	for _, t := range []core.EvidenceType{core.EvidenceTypeNumber, core.EvidenceTypeBoolean, core.EvidenceTypeDate, core.EvidenceTypeString} {
		if typeCounts[t] > maxCount {
			dominant, maxCount = t, typeCounts[t]
		}
	}

	inferred.Confidence = float64(maxCount) / float64(len(values))
	if inferred.Confidence < confidenceThreshold && len(typeCounts) > 1 {
		dominant = core.EvidenceTypeString
	}
	inferred.EvidenceType = dominant
	inferred.Cardinality = cardinality(values)

	switch dominant {
	case core.EvidenceTypeNumber:
		inferred.NumericStats = calculateNumericStats(values)
		if isUnixSeconds(inferred.NumericStats) {
			inferred.Format = FormatUnixSeconds
		}
	case core.EvidenceTypeDate:
		inferred.TemporalStats = calculateTemporalStats(values)
		inferred.Format = dominantFormat(values)
	case core.EvidenceTypeString:
		inferred.StringStats = calculateStringStats(values)
		inferred.Format = dominantFormat(values)
	}

	return inferred
}

// InferColumns returns ds's column types with every inferred column
// re-derived from the rows. Precise columns are returned unchanged, as are
// inferred columns with no non-null samples.
func InferColumns(ds *core.DatasetSpec) []core.ColumnType {
	out := make([]core.ColumnType, len(ds.ColumnTypes))
	for i, col := range ds.ColumnTypes {
		out[i] = col
		if col.TypeFidelity != core.TypeFidelityInferred {
			continue
		}
		if inferred := Infer(ds.Rows, col.Name); inferred.Confidence > 0 {
			out[i].EvidenceType = inferred.EvidenceType
		}
	}
	return out
}

// detectValueType maps a single value to the host type it reads as
func detectValueType(v core.Value) core.EvidenceType {
	switch v.Kind() {
	case core.KindNumber:
		return core.EvidenceTypeNumber
	case core.KindBool:
		return core.EvidenceTypeBoolean
	case core.KindDate:
		return core.EvidenceTypeDate
	case core.KindString:
		s, _ := v.Str()
		s = strings.TrimSpace(s)
		if isBoolean(s) {
			return core.EvidenceTypeBoolean
		}
		if isNumeric(s) {
			return core.EvidenceTypeNumber
		}
		if f := detectFormat(s); f == FormatDate || f == FormatTimestamp {
			return core.EvidenceTypeDate
		}
		return core.EvidenceTypeString
	default:
		return core.EvidenceTypeString
	}
}

// detectFormat detects the format of a string value
func detectFormat(value string) string {
	for _, pattern := range timestampPatterns {
		if pattern.MatchString(value) {
			return FormatTimestamp
		}
	}
	for _, pattern := range datePatterns {
		if pattern.MatchString(value) {
			return FormatDate
		}
	}
	switch {
	case emailPattern.MatchString(value):
		return FormatEmail
	case urlPattern.MatchString(value):
		return FormatURL
	case uuidPattern.MatchString(value):
		return FormatUUID
	}
	return ""
}

// dominantFormat returns the format shared by at least 80% of values
func dominantFormat(values []core.Value) string {
	formatCounts := make(map[string]int)
	for _, v := range values {
		if v.Kind() == core.KindJSON {
			formatCounts[FormatJSON]++
			continue
		}
		if s, ok := v.Str(); ok {
			if format := detectFormat(s); format != "" {
				formatCounts[format]++
			}
		}
	}

	threshold := int(math.Ceil(float64(len(values)) * 0.8))
	best, bestCount := "", 0
	for format, count := range formatCounts {
		if count >= threshold && (count > bestCount || (count == bestCount && format < best)) {
			best, bestCount = format, count
		}
	}
	return best
}

func isBoolean(s string) bool {
	lower := strings.ToLower(s)
	return lower == "true" || lower == "false"
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isUnixSeconds(stats *NumericStats) bool {
	return stats != nil &&
		stats.Min >= minUnixSeconds && stats.Max <= maxUnixSeconds &&
		stats.Min == math.Trunc(stats.Min) && stats.Max == math.Trunc(stats.Max)
}

// calculateNumericStats calculates statistics for numeric values
func calculateNumericStats(values []core.Value) *NumericStats {
	numbers := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := v.Float64(); ok {
			numbers = append(numbers, f)
			continue
		}
		if s, ok := v.Str(); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				numbers = append(numbers, f)
			}
		}
	}
	if len(numbers) == 0 {
		return nil
	}

	sort.Float64s(numbers)
	stats := &NumericStats{Min: numbers[0], Max: numbers[len(numbers)-1]}

	sum := 0.0
	for _, n := range numbers {
		sum += n
	}
	stats.Mean = sum / float64(len(numbers))

	mid := len(numbers) / 2
	if len(numbers)%2 == 0 {
		stats.Median = (numbers[mid-1] + numbers[mid]) / 2
	} else {
		stats.Median = numbers[mid]
	}

	variance := 0.0
	for _, n := range numbers {
		variance += (n - stats.Mean) * (n - stats.Mean)
	}
	stats.StdDev = math.Sqrt(variance / float64(len(numbers)))

	return stats
}

// calculateStringStats calculates statistics for string values
func calculateStringStats(values []core.Value) *StringStats {
	stats := &StringStats{MinLength: math.MaxInt}

	totalLength, count := 0, 0
	for _, v := range values {
		length := len(v.String())
		if length < stats.MinLength {
			stats.MinLength = length
		}
		if length > stats.MaxLength {
			stats.MaxLength = length
		}
		totalLength += length
		count++
	}

	if count == 0 {
		stats.MinLength = 0
		return stats
	}
	stats.AvgLength = float64(totalLength) / float64(count)
	return stats
}

// calculateTemporalStats calculates statistics for temporal values
func calculateTemporalStats(values []core.Value) *TemporalStats {
	stats := &TemporalStats{}
	first := true
	for _, v := range values {
		t, ok := v.AsTime()
		if !ok {
			continue
		}
		if first || t.Before(stats.MinDate) {
			stats.MinDate = t
		}
		if first || t.After(stats.MaxDate) {
			stats.MaxDate = t
		}
		first = false
	}
	return stats
}

// cardinality counts distinct values by their text form
func cardinality(values []core.Value) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v.Kind().String()+":"+v.String()] = struct{}{}
	}
	return len(seen)
}
