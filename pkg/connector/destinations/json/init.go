package json

import (
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterDestination("json", NewJSONDestination)

	_ = registry.RegisterConnectorInfo(&registry.ConnectorInfo{
		Name:        "json",
		Type:        core.ConnectorTypeDestination,
		Description: "Writes each dataset to <name>.json as a JSON array or JSON lines",
		Version:     "1.0.0",
		Capabilities: []string{
			"json_array",
			"json_lines",
			"pretty_print",
			"compression",
			"schema_file",
		},
	})
}
