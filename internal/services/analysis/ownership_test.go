package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupOwner_SuffixStripping(t *testing.T) {
	owner, ok := lookupOwner("securepubads.doubleclick.net")
	require.True(t, ok)
	assert.Equal(t, "Alphabet", owner.Parent)

	owner, ok = lookupOwner("google-analytics.com")
	require.True(t, ok)
	assert.Equal(t, "Google Analytics", owner.Brand)

	_, ok = lookupOwner("completely-unknown-domain.io")
	assert.False(t, ok)
}

func TestBuildOwnershipGraph_GroupsByParent(t *testing.T) {
	domains := []string{
		"google-analytics.com",
		"doubleclick.net",
		"facebook.net",
		"unknown-widget.io",
	}
	graph := buildOwnershipGraph("example.com", domains)

	assert.Equal(t, "example.com", graph.Site)
	require.Len(t, graph.Nodes, 2)

	// Alphabet owns two of the domains, so it ranks first
	assert.Equal(t, "Alphabet", graph.Nodes[0].Parent)
	assert.Equal(t, 2, graph.Nodes[0].EdgeCount)
	assert.Equal(t, "Meta", graph.Nodes[1].Parent)

	stats := graph.Stats
	assert.Equal(t, 2, stats.TotalCompanies)
	assert.Equal(t, 3, stats.IdentifiedDomains)
	assert.Equal(t, 1, stats.UnknownDomains)
	assert.Equal(t, []string{"Alphabet", "Meta"}, stats.TopCompanies)
	// Top companies own 3 of 4 external domains
	assert.Equal(t, 75, stats.CorporateConcentration)
}

func TestBuildOwnershipGraph_Empty(t *testing.T) {
	graph := buildOwnershipGraph("example.com", nil)
	assert.Empty(t, graph.Nodes)
	assert.Zero(t, graph.Stats.CorporateConcentration)
}
