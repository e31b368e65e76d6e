package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/ternarybob/vigil/internal/models"
)

// lookupOwner resolves a domain against the ownership table, trying the
// exact domain and then progressively stripped parent suffixes.
func lookupOwner(domain string) (domainOwner, bool) {
	labels := strings.Split(domain, ".")
	for i := 0; i < len(labels)-1; i++ {
		candidate := strings.Join(labels[i:], ".")
		if owner, ok := domainOwners[candidate]; ok {
			return owner, true
		}
	}
	return domainOwner{}, false
}

// buildOwnershipGraph maps the site's external traffic to parent
// corporations
func buildOwnershipGraph(site string, externalDomains []string) models.OwnershipGraph {
	type group struct {
		owner   domainOwner
		brands  map[string]bool
		domains []string
	}
	groups := make(map[string]*group)
	identified := 0
	categoryBreakdown := make(map[string]int)

	for _, domain := range externalDomains {
		owner, ok := lookupOwner(domain)
		if !ok {
			continue
		}
		identified++
		categoryBreakdown[owner.Category]++

		g, exists := groups[owner.Parent]
		if !exists {
			g = &group{owner: owner, brands: make(map[string]bool)}
			groups[owner.Parent] = g
		}
		g.brands[owner.Brand] = true
		g.domains = append(g.domains, domain)
	}

	nodes := make([]models.OwnershipNode, 0, len(groups))
	for parent, g := range groups {
		brands := make([]string, 0, len(g.brands))
		for brand := range g.brands {
			brands = append(brands, brand)
		}
		sort.Strings(brands)
		nodes = append(nodes, models.OwnershipNode{
			Parent:    parent,
			Category:  g.owner.Category,
			Color:     g.owner.Color,
			Brands:    brands,
			Domains:   g.domains,
			EdgeCount: len(g.domains),
		})
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].EdgeCount != nodes[j].EdgeCount {
			return nodes[i].EdgeCount > nodes[j].EdgeCount
		}
		return nodes[i].Parent < nodes[j].Parent
	})

	stats := models.OwnershipStats{
		TotalCompanies:    len(nodes),
		IdentifiedDomains: identified,
		UnknownDomains:    len(externalDomains) - identified,
		CategoryBreakdown: categoryBreakdown,
	}

	topDomains := 0
	for i, node := range nodes {
		if i >= 3 {
			break
		}
		stats.TopCompanies = append(stats.TopCompanies, node.Parent)
		topDomains += node.EdgeCount
	}
	if len(externalDomains) > 0 {
		stats.CorporateConcentration = int(math.Round(float64(topDomains) / float64(len(externalDomains)) * 100))
	}

	return models.OwnershipGraph{Site: site, Nodes: nodes, Stats: stats}
}
