package opendota

import (
	"net/url"
	"strings"

	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
)

// Dataset names in emission order
const (
	DatasetPlayerData = "playerData"
	DatasetHeroStats  = "heroStats"
	DatasetHeroes     = "heroes"
	DatasetProMatches = "pro_matches"
	DatasetMatches    = "matches"
)

// Dataset maps one upstream endpoint to a table
type Dataset struct {
	Name string `json:"name"`
	// Content is the cache key handed to the host with every emission
	Content string `json:"content"`
	// Path is relative to the base URL; {player_id} and {match_id} are substituted
	Path        string            `json:"path"`
	ColumnTypes []core.ColumnType `json:"columnTypes"`
	// NeedsMatchID datasets are only fetched when match_id is configured
	NeedsMatchID bool `json:"needsMatchId,omitempty"`
}

var (
	num = core.EvidenceTypeNumber
	str = core.EvidenceTypeString
)

func precise(t core.EvidenceType, names ...string) []core.ColumnType {
	cols := make([]core.ColumnType, len(names))
	for i, n := range names {
		cols[i] = core.Precise(n, t)
	}
	return cols
}

func columns(groups ...[]core.ColumnType) []core.ColumnType {
	var out []core.ColumnType
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var heroColumns = columns(
	precise(num, "id"),
	precise(str, "name", "localized_name", "primary_attr", "attack_type", "roles"),
)

var catalog = []Dataset{
	{
		Name:        DatasetPlayerData,
		Content:     "playerData",
		Path:        "/players/{player_id}",
		ColumnTypes: precise(num, "solo_competitive_rank", "competitive_rank", "rank_tier"),
	},
	{
		Name:    DatasetHeroStats,
		Content: "heroStats",
		Path:    "/heroStats",
		ColumnTypes: columns(
			heroColumns,
			precise(num,
				"base_health", "base_health_regen", "base_mana", "base_mana_regen", "base_armor",
				"base_attack_min", "base_attack_max", "base_str", "base_agi", "base_int",
				"str_gain", "agi_gain", "int_gain", "attack_range", "projectile_speed",
				"attack_rate", "move_speed", "turn_rate", "day_vision", "night_vision",
				"pro_ban", "pro_win", "pro_pick"),
		),
	},
	{
		Name:        DatasetHeroes,
		Content:     "heroes",
		Path:        "/heroes",
		ColumnTypes: heroColumns,
	},
	{
		Name:    DatasetProMatches,
		Content: "proMatches",
		Path:    "/proMatches",
		ColumnTypes: columns(
			precise(num, "match_id", "duration"),
			[]core.ColumnType{core.Inferred("start_time", core.EvidenceTypeDate)},
			precise(num, "radiant_team_id"),
			precise(str, "radiant_name"),
			precise(num, "dire_team_id"),
			precise(str, "dire_name"),
			precise(num, "leagueid"),
			precise(str, "league_name"),
			precise(num, "series_id", "series_type", "radiant_score", "dire_score"),
			precise(core.EvidenceTypeBoolean, "radiant_win"),
		),
	},
	{
		Name:    DatasetMatches,
		Content: "matches",
		Path:    "/matches/{match_id}",
		ColumnTypes: columns(
			precise(num, "match_id", "duration"),
			[]core.ColumnType{core.Inferred("start_time", core.EvidenceTypeDate)},
			precise(core.EvidenceTypeBoolean, "radiant_win"),
			precise(num, "radiant_score", "dire_score", "game_mode", "lobby_type"),
		),
		NeedsMatchID: true,
	},
}

// Catalog returns every known dataset in emission order
func Catalog() []Dataset {
	out := make([]Dataset, len(catalog))
	for i, d := range catalog {
		d.ColumnTypes = append([]core.ColumnType(nil), d.ColumnTypes...)
		out[i] = d
	}
	return out
}

// Lookup finds a dataset by name
func Lookup(name string) (Dataset, bool) {
	for _, d := range Catalog() {
		if d.Name == name {
			return d, true
		}
	}
	return Dataset{}, false
}

// URL builds the request URL for cfg. The api key, when set, is sent as the
// api_key query parameter.
func (d Dataset) URL(cfg *config.OpenDotaSourceConfig) string {
	path := strings.NewReplacer(
		"{player_id}", url.PathEscape(cfg.PlayerID),
		"{match_id}", url.PathEscape(cfg.MatchID),
	).Replace(d.Path)

	u := cfg.BaseURL + path
	if cfg.APIKey != "" {
		u += "?" + url.Values{"api_key": []string{cfg.APIKey}}.Encode()
	}
	return u
}

// Spec builds the dataset spec that pairs rows with the declared columns
func (d Dataset) Spec(rows []core.Record) *core.DatasetSpec {
	return &core.DatasetSpec{
		Name:        d.Name,
		Content:     d.Content,
		Rows:        rows,
		ColumnTypes: append([]core.ColumnType(nil), d.ColumnTypes...),
	}
}

// selectDatasets returns the datasets a run fetches, in emission order.
// With no selection every dataset is fetched, skipping those that need a
// match id when none is configured. Naming such a dataset explicitly without
// a match id is a configuration error.
func selectDatasets(cfg *config.OpenDotaSourceConfig) ([]Dataset, error) {
	wanted := make(map[string]bool, len(cfg.Datasets))
	for _, name := range cfg.Datasets {
		if _, ok := Lookup(name); !ok {
			return nil, errors.New(errors.ErrorTypeConfig, "unknown dataset").
				WithDetail("dataset", name)
		}
		wanted[name] = true
	}

	var out []Dataset
	for _, d := range Catalog() {
		if len(wanted) > 0 && !wanted[d.Name] {
			continue
		}
		if d.NeedsMatchID && cfg.MatchID == "" {
			if wanted[d.Name] {
				return nil, errors.New(errors.ErrorTypeConfig, "dataset requires match_id").
					WithDetail("dataset", d.Name)
			}
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
