// Package cluster groups normalized findings that plausibly describe the
// same vulnerability: same target, same CWE class, overlapping location.
package cluster

import (
	"fmt"
	"sort"

	"github.com/appsecsanta/research/pkg/types"
)

// noCWE is the bucket marker for findings without a CWE. Such findings
// additionally key on (tool, rule) so they never merge across tools on a
// shared empty value.
const noCWE = "_nocwe_"

type bucketKey struct {
	target string
	cwe    string
	tool   string // set only when cwe is noCWE
	ruleID string // set only when cwe is noCWE
}

func keyFor(f types.Finding) bucketKey {
	if f.CWE == "" {
		return bucketKey{target: f.Target, cwe: noCWE, tool: f.Tool, ruleID: f.RawID}
	}
	return bucketKey{target: f.Target, cwe: f.CWE}
}

// displayCWE is the CWE carried on the resulting group: empty for the
// no-CWE bucket, the bucket CWE otherwise.
func displayCWE(k bucketKey) string {
	if k.cwe == noCWE {
		return ""
	}
	return k.cwe
}

// Cluster partitions findings into FindingGroups. Findings are bucketed by
// (target, cwe), then connected components are formed under the location
// Match relation. Matching is transitive by construction: noisy location
// strings chain through shared basenames even when not all pairs agree.
// A finding matching nothing becomes its own singleton group, never
// dropped. Output order and group IDs are deterministic for a given input
// order.
func Cluster(findings []types.Finding) []types.FindingGroup {
	buckets := make(map[bucketKey][]int)
	for i, f := range findings {
		k := keyFor(f)
		buckets[k] = append(buckets[k], i)
	}

	type proto struct {
		key     bucketKey
		members []int // indexes into findings, ascending
	}
	var protos []proto

	for key, idxs := range buckets {
		uf := newUnionFind(len(idxs))
		for i := 0; i < len(idxs); i++ {
			for j := i + 1; j < len(idxs); j++ {
				if Match(findings[idxs[i]].Location, findings[idxs[j]].Location) {
					uf.union(i, j)
				}
			}
		}
		components := make(map[int][]int)
		for i, idx := range idxs {
			root := uf.find(i)
			components[root] = append(components[root], idx)
		}
		for _, members := range components {
			protos = append(protos, proto{key: key, members: members})
		}
	}

	sort.Slice(protos, func(i, j int) bool {
		a, b := protos[i], protos[j]
		if a.key.target != b.key.target {
			return a.key.target < b.key.target
		}
		if ac, bc := displayCWE(a.key), displayCWE(b.key); ac != bc {
			return ac < bc
		}
		if a.key.tool != b.key.tool {
			return a.key.tool < b.key.tool
		}
		if a.key.ruleID != b.key.ruleID {
			return a.key.ruleID < b.key.ruleID
		}
		return a.members[0] < b.members[0]
	})

	counters := make(map[string]int)
	groups := make([]types.FindingGroup, 0, len(protos))
	for _, p := range protos {
		members := make([]types.Finding, 0, len(p.members))
		toolSet := make(map[string]bool)
		severities := make([]types.Severity, 0, len(p.members))
		location, description := "", ""
		for _, idx := range p.members {
			f := findings[idx]
			members = append(members, f)
			toolSet[f.Tool] = true
			severities = append(severities, f.Severity)
			if location == "" {
				location = f.Location
			}
			if description == "" {
				description = f.Description
			}
		}
		tools := make([]string, 0, len(toolSet))
		for tool := range toolSet {
			tools = append(tools, tool)
		}
		sort.Strings(tools)

		target := p.key.target
		cwe := displayCWE(p.key)
		counters[target]++
		groups = append(groups, types.FindingGroup{
			GroupID:     fmt.Sprintf("GRP-%s-%s-%03d", target, cwe, counters[target]),
			Target:      target,
			CWE:         cwe,
			Members:     members,
			Tools:       tools,
			Severity:    types.MaxSeverity(severities),
			Location:    location,
			Description: description,
		})
	}
	return groups
}

// unionFind is a classic disjoint-set with path compression and union by
// rank, sized for one bucket at a time.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}
