package csv

import (
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterDestination("csv", NewCSVDestination)

	_ = registry.RegisterConnectorInfo(&registry.ConnectorInfo{
		Name:        "csv",
		Type:        core.ConnectorTypeDestination,
		Description: "Writes each dataset to <name>.csv with a header in declared column order",
		Version:     "1.0.0",
		Capabilities: []string{
			"declared_header",
			"custom_delimiter",
			"compression",
			"schema_file",
		},
	})
}
