package core

import (
	"strings"

	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
)

// EvidenceType is the semantic column type understood by the host
type EvidenceType string

const (
	EvidenceTypeNumber  EvidenceType = "number"
	EvidenceTypeString  EvidenceType = "string"
	EvidenceTypeBoolean EvidenceType = "boolean"
	EvidenceTypeDate    EvidenceType = "date"
)

// ParseEvidenceType accepts the host spelling in any case (NUMBER, number)
func ParseEvidenceType(s string) (EvidenceType, error) {
	switch t := EvidenceType(strings.ToLower(strings.TrimSpace(s))); t {
	case EvidenceTypeNumber, EvidenceTypeString, EvidenceTypeBoolean, EvidenceTypeDate:
		return t, nil
	default:
		return "", errors.New(errors.ErrorTypeValidation, "unknown evidence type").WithDetail("value", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (t EvidenceType) MarshalText() ([]byte, error) {
	if _, err := ParseEvidenceType(string(t)); err != nil {
		return nil, err
	}
	return []byte(t), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *EvidenceType) UnmarshalText(text []byte) error {
	parsed, err := ParseEvidenceType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TypeFidelity says whether a declared type is authoritative
type TypeFidelity string

const (
	// TypeFidelityPrecise asserts the declared type is authoritative
	TypeFidelityPrecise TypeFidelity = "precise"
	// TypeFidelityInferred lets the host re-derive the type from sampled values
	TypeFidelityInferred TypeFidelity = "inferred"
)

// MarshalText implements encoding.TextMarshaler
func (f TypeFidelity) MarshalText() ([]byte, error) {
	switch f {
	case TypeFidelityPrecise, TypeFidelityInferred:
		return []byte(f), nil
	default:
		return nil, errors.New(errors.ErrorTypeValidation, "unknown type fidelity").WithDetail("value", string(f))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler
func (f *TypeFidelity) UnmarshalText(text []byte) error {
	switch v := TypeFidelity(strings.ToLower(string(text))); v {
	case TypeFidelityPrecise, TypeFidelityInferred:
		*f = v
		return nil
	default:
		return errors.New(errors.ErrorTypeValidation, "unknown type fidelity").WithDetail("value", string(text))
	}
}

// ColumnType declares one column of an emitted dataset
type ColumnType struct {
	Name         string       `json:"name"`
	EvidenceType EvidenceType `json:"evidenceType"`
	TypeFidelity TypeFidelity `json:"typeFidelity"`
}

// Precise declares a column whose type is authoritative
func Precise(name string, t EvidenceType) ColumnType {
	return ColumnType{Name: name, EvidenceType: t, TypeFidelity: TypeFidelityPrecise}
}

// Inferred declares a column whose type the host may re-derive
func Inferred(name string, t EvidenceType) ColumnType {
	return ColumnType{Name: name, EvidenceType: t, TypeFidelity: TypeFidelityInferred}
}

// ConnectorType represents the type of connector
type ConnectorType string

const (
	ConnectorTypeSource      ConnectorType = "source"
	ConnectorTypeDestination ConnectorType = "destination"
)
