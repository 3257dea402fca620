// Package destinations registers the file destinations the CLI can write
// datasets to
package destinations

import (
	// Import all destination connectors to trigger init() registration
	_ "github.com/ajitpratap0/opendota-datasource/pkg/connector/destinations/csv"
	_ "github.com/ajitpratap0/opendota-datasource/pkg/connector/destinations/json"
)
