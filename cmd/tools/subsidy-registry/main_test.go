package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"solar-loan-workers/internal/models"
	"solar-loan-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertThenQuote(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "subsidy.json")

	require.NoError(t, upsertState(path, "Karnataka", registry.Tier{Percentage: 10, MaxAmount: 10000}))

	var out bytes.Buffer
	require.NoError(t, quote(&out, path, 3, "Karnataka", models.SystemTypeResidential))
	assert.Equal(t, "central 1200.00  state 300.00  total 1500.00\n", out.String())

	out.Reset()
	require.NoError(t, listStates(&out, path))
	assert.Contains(t, out.String(), "Karnataka")
	assert.Contains(t, out.String(), "Maharashtra")

	out.Reset()
	require.NoError(t, validateRegistry(&out, path))
	assert.Contains(t, out.String(), "Found 4 state tiers")
}

func TestUpsertRejectsInvalidTier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subsidy.json")

	err := upsertState(path, "Kerala", registry.Tier{Percentage: 150})
	assert.Error(t, err)

	var out bytes.Buffer
	assert.Error(t, validateRegistry(&out, path), "nothing should have been written")
}
