package core

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestAssetTierLabels(t *testing.T) {
	for _, tc := range []struct {
		tier  AssetTier
		code  int
		label string
	}{
		{AssetTierUnlisted, 0, "UNLISTED"},
		{AssetTierIsolate, 1, "ISOLATE"},
		{AssetTierCross, 2, "CROSS"},
		{AssetTierCollateral, 3, "COLLATERAL"},
	} {
		t.Run(tc.label, func(t *testing.T) {
			assert.Equal(t, tc.label, tc.tier.String())

			fromCode, err := AssetTierFromCode(tc.code)
			require.NoError(t, err)
			assert.Equal(t, tc.tier, fromCode)

			parsed, err := ParseAssetTier(tc.label)
			require.NoError(t, err)
			assert.Equal(t, tc.tier, parsed)
		})
	}
}

func TestAssetTiersIsClosed(t *testing.T) {
	tiers := AssetTiers()
	require.Len(t, tiers, 4)

	labels := make(map[string]AssetTier)
	for i, tier := range tiers {
		assert.Equal(t, AssetTier(i), tier)
		assert.True(t, tier.Valid())
		labels[tier.String()] = tier
	}

	assert.Len(t, labels, 4, "labels must be distinct")
	assert.False(t, AssetTier(4).Valid())
	assert.Equal(t, "AssetTier(4)", AssetTier(4).String())
}

func TestAssetTierRejectsUnknown(t *testing.T) {
	_, err := AssetTierFromCode(4)
	assert.ErrorIs(t, err, ErrUnknownAssetTier)

	_, err = AssetTierFromCode(-1)
	assert.ErrorIs(t, err, ErrUnknownAssetTier)

	_, err = ParseAssetTier("ISOLATED")
	assert.ErrorIs(t, err, ErrUnknownAssetTier)

	_, err = AssetTier(9).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownAssetTier)
}

func TestParseAssetTierIgnoresCase(t *testing.T) {
	tier, err := ParseAssetTier(" cross ")
	require.NoError(t, err)
	assert.Equal(t, AssetTierCross, tier)
}

func TestAssetTierEncoding(t *testing.T) {
	type holder struct {
		Tier AssetTier `json:"tier" yaml:"tier"`
	}

	data, err := json.Marshal(holder{Tier: AssetTierCollateral})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tier":"COLLATERAL"}`, string(data))

	var h holder
	require.NoError(t, json.Unmarshal([]byte(`{"tier":2}`), &h))
	assert.Equal(t, AssetTierCross, h.Tier)

	require.NoError(t, json.Unmarshal([]byte(`{"tier":"ISOLATE"}`), &h))
	assert.Equal(t, AssetTierIsolate, h.Tier)

	assert.Error(t, json.Unmarshal([]byte(`{"tier":7}`), &h))

	out, err := yaml.Marshal(holder{Tier: AssetTierUnlisted})
	require.NoError(t, err)
	assert.Equal(t, "tier: UNLISTED\n", string(out))

	require.NoError(t, yaml.Unmarshal([]byte("tier: 3\n"), &h))
	assert.Equal(t, AssetTierCollateral, h.Tier)

	assert.Error(t, yaml.Unmarshal([]byte("tier: GOLD\n"), &h))
}

func TestMarketAssetTier(t *testing.T) {
	tier, err := Market{Tier: "COLLATERAL"}.AssetTier()
	require.NoError(t, err)
	assert.Equal(t, AssetTierCollateral, tier)

	_, err = Market{Tier: "blue-chip"}.AssetTier()
	assert.ErrorIs(t, err, ErrUnknownAssetTier)
}

func TestAssetTierJSONNull(t *testing.T) {
	tier := AssetTierCross
	require.NoError(t, tier.UnmarshalJSON([]byte("null")))
	assert.Equal(t, AssetTierCross, tier)

	var doc struct {
		Tier AssetTier `json:"tier"`
	}
	doc.Tier = AssetTierIsolate
	require.NoError(t, json.Unmarshal([]byte(`{"tier":null}`), &doc))
	assert.Equal(t, AssetTierIsolate, doc.Tier)
}
