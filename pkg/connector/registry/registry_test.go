package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
)

type stubDestination struct{ name string }

func (d *stubDestination) Name() string                                   { return d.name }
func (d *stubDestination) Write(context.Context, *core.DatasetSpec) error { return nil }
func (d *stubDestination) Close(context.Context) error                    { return nil }

func TestRegisterAndCreateDestination(t *testing.T) {
	r := NewRegistry()
	factory := func(cfg *config.BaseConfig) (core.Destination, error) {
		return &stubDestination{name: cfg.Name}, nil
	}

	require.NoError(t, r.RegisterDestination("zeta", factory))
	require.NoError(t, r.RegisterDestination("alpha", factory))
	err := r.RegisterDestination("alpha", factory)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	assert.Equal(t, []string{"alpha", "zeta"}, r.ListDestinations())
	assert.True(t, r.HasDestination("zeta"))

	dest, err := r.CreateDestination("zeta", config.NewBaseConfig("out", "zeta"))
	require.NoError(t, err)
	assert.Equal(t, "out", dest.Name())

	_, err = r.CreateDestination("missing", nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	r.Clear()
	assert.Empty(t, r.ListDestinations())
}

func TestCreateSourceKeepsFactoryErrorType(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterSource("broken", func(*config.BaseConfig) (core.Datasource, error) {
		return nil, errors.New(errors.ErrorTypeConfig, "bad player_id")
	}))

	_, err := r.CreateSource("broken", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "bad player_id")

	_, err = r.CreateSource("missing", nil)
	var typed *errors.Error
	require.ErrorAs(t, err, &typed)
	available, _ := typed.Detail("available")
	assert.Equal(t, []string{"broken"}, available)
}

func TestConnectorCatalog(t *testing.T) {
	c := NewConnectorCatalog()
	require.NoError(t, c.Register(&ConnectorInfo{Name: "opendota", Type: core.ConnectorTypeSource}))
	require.NoError(t, c.Register(&ConnectorInfo{Name: "csv", Type: core.ConnectorTypeDestination}))
	assert.Error(t, c.Register(&ConnectorInfo{Name: "csv"}))
	assert.Error(t, c.Register(&ConnectorInfo{}))

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "csv", list[0].Name)
	assert.Equal(t, "opendota", list[1].Name)

	info, err := c.Get("opendota")
	require.NoError(t, err)
	assert.Equal(t, core.ConnectorTypeSource, info.Type)

	_, err = c.Get("missing")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestGlobalRegistry(t *testing.T) {
	const name = "registry_test_source"
	require.NoError(t, RegisterSource(name, func(*config.BaseConfig) (core.Datasource, error) {
		return nil, errors.New(errors.ErrorTypeNotImplemented, "stub")
	}))
	assert.True(t, GetRegistry().HasSource(name))
	assert.Contains(t, ListSources(), name)
	assert.Error(t, RegisterSource(name, nil))

	require.NoError(t, RegisterConnectorInfo(&ConnectorInfo{Name: name, Type: core.ConnectorTypeSource, Datasets: []string{"heroes"}}))
	info, err := GetConnectorInfo(name)
	require.NoError(t, err)
	assert.Equal(t, []string{"heroes"}, info.Datasets)
}
