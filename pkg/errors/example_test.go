// Package errors provides examples of structured error handling in the connector.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
)

// Example demonstrates basic error creation with endpoint details.
func Example() {
	err := errors.New(errors.ErrorTypeNetwork, "unexpected status from upstream").
		WithDetail("endpoint", "/proMatches").
		WithDetail("status", 503)

	fmt.Println(err.Error())
	fmt.Println(err.DetailString())

	// Output:
	// network: unexpected status from upstream
	// endpoint=/proMatches status=503
}

// ExampleWrap shows how a parse failure keeps its cause.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeParse, "response body is not valid JSON").
		WithDetail("endpoint", "/heroes")

	if errors.IsType(err, errors.ErrorTypeParse) {
		fmt.Println("parse error")
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		fmt.Println("caused by unexpected EOF")
	}

	// Output:
	// parse error
	// caused by unexpected EOF
}

// ExampleIsType demonstrates that IsType looks through wrapped errors.
func ExampleIsType() {
	netErr := errors.New(errors.ErrorTypeNetwork, "connection refused")
	wrapped := errors.Wrap(netErr, errors.ErrorTypeData, "dataset heroes failed").
		WithDetail("dataset", "heroes")

	fmt.Printf("data: %v\n", errors.IsType(wrapped, errors.ErrorTypeData))
	fmt.Printf("network: %v\n", errors.IsType(wrapped, errors.ErrorTypeNetwork))
	fmt.Printf("timeout: %v\n", errors.IsType(wrapped, errors.ErrorTypeTimeout))
	fmt.Printf("root: %s\n", errors.RootType(wrapped))

	// Output:
	// data: true
	// network: true
	// timeout: false
	// root: network
}

// ExampleIsRetryable shows which categories a caller may choose to retry.
func ExampleIsRetryable() {
	timeout := errors.New(errors.ErrorTypeTimeout, "request deadline exceeded")
	stub := errors.New(errors.ErrorTypeNotImplemented, "getRunner not implemented")

	fmt.Println(errors.IsRetryable(timeout))
	fmt.Println(errors.IsRetryable(stub))

	// Output:
	// true
	// false
}
