package connector_test

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"

	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/registry"
	_ "github.com/ajitpratap0/opendota-datasource/pkg/connector/sources/opendota"
)

// Example_processSource streams the heroes dataset from a stand-in API.
func Example_processSource() {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":1,"name":"npc_dota_hero_antimage","localized_name":"Anti-Mage","primary_attr":"agi","attack_type":"Melee","roles":["Carry","Escape","Nuker"]}]`)
	}))
	defer api.Close()

	cfg := config.NewBaseConfig("opendota", "opendota")
	cfg.Security.Credentials[config.KeyBaseURL] = api.URL

	ctx := context.Background()
	src, err := registry.CreateSource("opendota", cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer src.Close(ctx)

	stream, err := src.ProcessSource(ctx, core.Options{"datasets": "heroes"}, nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	for e := range stream.Emissions {
		if e.Failed() {
			log.Fatal(e.Err)
		}
		fmt.Printf("%s: %d row(s)\n", e.Name, e.Dataset.RowCount())
		localized, _ := e.Dataset.Rows[0]["localized_name"].Str()
		fmt.Println(localized)
	}

	// Output:
	// heroes: 1 row(s)
	// Anti-Mage
}

// Example_catalog lists the datasets a source run can emit.
func Example_catalog() {
	for _, info := range registry.ListConnectorInfo() {
		if info.Type == core.ConnectorTypeSource {
			fmt.Println(info.Name, info.Datasets)
		}
	}

	// Output:
	// opendota [playerData heroStats heroes pro_matches matches]
}
