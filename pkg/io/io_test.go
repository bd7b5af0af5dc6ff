package io

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/reefrank/pkg/domain"
	"github.com/matzehuels/reefrank/pkg/errors"
	"github.com/matzehuels/reefrank/pkg/mcda"
	"github.com/matzehuels/reefrank/pkg/pipeline"
	"github.com/matzehuels/reefrank/pkg/scenario"
)

const twoSites = `{
  "name": "pair",
  "sites": [
    {"id": "a", "area": 1000, "k": 80, "depth": 6, "zone": "green"},
    {"id": "b", "area": 800, "k": 75, "depth": 9, "priority": true}
  ],
  "connectivity": {"cutoff": 0.01, "matrix": [[0, 0.2], [0.05, 0]]},
  "wave_stress": [[[0.1, 0.2], [0.3, 0.1]]],
  "heat_stress": [[[0.05, 0.4], [0.2, 0.2]]],
  "coral_cover": {"types": ["tabular"], "cover": [[0.2, 0.1]]},
  "distances": [[0, 850], [850, 0]]
}`

func TestReadDomain(t *testing.T) {
	in, err := ReadDomain(strings.NewReader(twoSites))
	require.NoError(t, err)

	assert.Equal(t, "pair", in.Name)
	require.Len(t, in.Sites, 2)
	assert.Equal(t, "b", in.Sites[1].ID)
	assert.True(t, in.Sites[1].Priority)
	assert.Equal(t, 0.01, in.ConnectivityCutoff)
	assert.Equal(t, []string{"tabular"}, in.CoralTypes)
	assert.Equal(t, 0.4, in.HeatStress[0][0][1])

	d, err := domain.New(in)
	require.NoError(t, err)
	assert.Equal(t, 2, d.N())
	assert.Equal(t, 2, d.Replicates())
}

func TestReadDomainErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"syntax", `{"sites": [`},
		{"unknown field", `{"sites": [{"id": "a"}], "reefs": 3}`},
		{"no sites", `{"name": "empty"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDomain(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), "got %v", err)
		})
	}
}

func TestImportDomain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pair.json")
	require.NoError(t, os.WriteFile(path, []byte(twoSites), 0o644))

	in, err := ImportDomain(path)
	require.NoError(t, err)
	assert.Len(t, in.Sites, 2)

	_, err = ImportDomain(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestWriteDomainReadBack(t *testing.T) {
	in, err := ReadDomain(strings.NewReader(twoSites))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDomain(in, &buf))

	back, err := ReadDomain(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, back)
}

func TestResultRoundTrip(t *testing.T) {
	ranks := mcda.NewResult(2)
	ranks.Ranks[1].Seed = 1
	res := &pipeline.Result{
		RunID:      "run-1",
		Domain:     "pair",
		Scenario:   scenario.Default(),
		Algorithm:  "order",
		SiteIDs:    []string{"a", "b"},
		Timesteps:  []int{0},
		Replicates: 1,
		Slots:      [][]*pipeline.Replicate{{{Timestep: 0, Replicate: 0, Ranks: ranks}}},
	}

	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, ExportResult(res, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	back, err := ReadResult(f)
	require.NoError(t, err)
	assert.Equal(t, "run-1", back.RunID)
	assert.Equal(t, []int{1}, back.Slots[0][0].Ranks.Selected(mcda.Seeding))
	assert.Equal(t, 3, back.Slots[0][0].Ranks.Sentinel)
	assert.Equal(t, scenario.Default().SeedSites, back.Scenario.SeedSites)
}

func TestReadResultInvalid(t *testing.T) {
	_, err := ReadResult(strings.NewReader("not json"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))
}
