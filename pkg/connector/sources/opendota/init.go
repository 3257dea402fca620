package opendota

import (
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterSource(ConnectorName, NewOpenDotaSource)

	names := make([]string, 0, len(catalog))
	for _, d := range catalog {
		names = append(names, d.Name)
	}
	_ = registry.RegisterConnectorInfo(&registry.ConnectorInfo{
		Name:        ConnectorName,
		Type:        core.ConnectorTypeSource,
		Description: "OpenDota API data source for Evidence",
		Version:     Version,
		Capabilities: []string{
			"process_source",
			"test_connection",
			"ordered_emission",
			"concurrent_fetch",
		},
		Datasets: names,
	})
}
