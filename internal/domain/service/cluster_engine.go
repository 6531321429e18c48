package service

import (
	"sort"

	"wallet-cluster-analyzer/internal/domain/entity"
)

// centralWalletCount is how many top-degree members a cluster report lists
const centralWalletCount = 3

// ClusterThresholds are the cut-offs of the cluster anomaly rules
type ClusterThresholds struct {
	DenseMinDensity     float64 `mapstructure:"dense_min_density"`
	DenseMaxSize        int     `mapstructure:"dense_max_size"`
	HighTxRate          float64 `mapstructure:"high_tx_rate"`
	CentralizedMinShare float64 `mapstructure:"centralized_min_share"`
}

// DefaultClusterThresholds returns the standard anomaly cut-offs
func DefaultClusterThresholds() ClusterThresholds {
	return ClusterThresholds{
		DenseMinDensity:     0.3,
		DenseMaxSize:        5,
		HighTxRate:          5,
		CentralizedMinShare: 0.5,
	}
}

// ClusterEngine partitions a transaction graph into connected components and
// scores each component with structural metrics and risk flags.
type ClusterEngine struct {
	thresholds ClusterThresholds
}

// NewClusterEngine creates a cluster engine
func NewClusterEngine(thresholds ClusterThresholds) *ClusterEngine {
	return &ClusterEngine{thresholds: thresholds}
}

// clusterAccumulator collects per-component data while scanning edges and rows
type clusterAccumulator struct {
	members    []int
	edgeCount  int
	signatures map[string]struct{}
	labels     map[entity.BehaviorLabel]struct{}
	firstLabel entity.BehaviorLabel
	protocols  []string
	seenProto  map[string]struct{}
	report     entity.ClusterReport
	hasRows    bool
}

// Cluster returns one report per connected component, in discovery order.
// Discovery follows graph node insertion order, and members are listed in that order too.
// Every node belongs to exactly one report.
func (e *ClusterEngine) Cluster(g *entity.Graph, rows []entity.LabeledRow) []entity.ClusterReport {
	if g.NodeCount() == 0 {
		return []entity.ClusterReport{}
	}

	index := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		index[n.ID] = i
	}

	ds := newDisjointSet(len(g.Nodes))
	for _, edge := range g.Edges {
		src, okSrc := index[edge.Source]
		dst, okDst := index[edge.Target]
		if okSrc && okDst {
			ds.union(src, dst)
		}
	}

	componentOf := make([]int, len(g.Nodes))
	rootToComponent := make(map[int]int)
	var clusters []*clusterAccumulator
	for i := range g.Nodes {
		root := ds.find(i)
		c, ok := rootToComponent[root]
		if !ok {
			c = len(clusters)
			rootToComponent[root] = c
			clusters = append(clusters, &clusterAccumulator{
				signatures: make(map[string]struct{}),
				labels:     make(map[entity.BehaviorLabel]struct{}),
				seenProto:  make(map[string]struct{}),
			})
		}
		componentOf[i] = c
		clusters[c].members = append(clusters[c].members, i)
	}

	degree := make([]int, len(g.Nodes))
	for _, edge := range g.Edges {
		src, okSrc := index[edge.Source]
		dst, okDst := index[edge.Target]
		if !okSrc || !okDst {
			continue
		}
		degree[src]++
		degree[dst]++
		clusters[componentOf[src]].edgeCount++
	}

	for _, row := range rows {
		for _, c := range rowComponents(row, index, componentOf) {
			clusters[c].addRow(row)
		}
	}

	reports := make([]entity.ClusterReport, 0, len(clusters))
	for i, c := range clusters {
		reports = append(reports, e.buildReport(i+1, c, g, degree))
	}
	return reports
}

// rowComponents returns the distinct components the row's sender or receiver belongs to
func rowComponents(row entity.LabeledRow, index map[string]int, componentOf []int) []int {
	var out []int
	if i, ok := index[row.Sender]; ok {
		out = append(out, componentOf[i])
	}
	if i, ok := index[row.Receiver]; ok {
		c := componentOf[i]
		if len(out) == 0 || out[0] != c {
			out = append(out, c)
		}
	}
	return out
}

func (c *clusterAccumulator) addRow(row entity.LabeledRow) {
	c.signatures[row.Signature] = struct{}{}

	if !c.hasRows || row.Timestamp.Before(c.report.ClusterStartTime) {
		c.report.ClusterStartTime = row.Timestamp
	}
	if !c.hasRows || row.Timestamp.After(c.report.ClusterEndTime) {
		c.report.ClusterEndTime = row.Timestamp
	}
	c.hasRows = true

	if row.EntityLabel != "" {
		if len(c.labels) == 0 {
			c.firstLabel = row.EntityLabel
		}
		c.labels[row.EntityLabel] = struct{}{}
	}

	if row.ProgramName != "" && row.ProgramName != entity.UnknownProgram {
		if _, seen := c.seenProto[row.ProgramName]; !seen {
			c.seenProto[row.ProgramName] = struct{}{}
			c.protocols = append(c.protocols, row.ProgramName)
		}
	}
}

func (e *ClusterEngine) buildReport(id int, c *clusterAccumulator, g *entity.Graph, degree []int) entity.ClusterReport {
	r := c.report
	r.ClusterID = id
	r.ClusterSize = len(c.members)
	r.TotalTransactions = len(c.signatures)

	r.Wallets = make([]string, len(c.members))
	totalDegree, maxDegree := 0, 0
	for i, m := range c.members {
		r.Wallets[i] = g.Nodes[m].ID
		totalDegree += degree[m]
		if degree[m] > maxDegree {
			maxDegree = degree[m]
		}
	}

	switch len(c.labels) {
	case 0:
		r.ClusterType = entity.ClusterTypeUnknown
	case 1:
		r.ClusterType = string(c.firstLabel)
	default:
		r.ClusterType = entity.ClusterTypeMixed
	}

	if r.ClusterSize > 0 {
		r.AvgDegree = float64(totalDegree) / float64(r.ClusterSize)
	}
	if r.ClusterSize > 1 {
		maxEdges := float64(r.ClusterSize*(r.ClusterSize-1)) / 2
		r.Density = float64(c.edgeCount) / maxEdges
	}

	ranked := append([]int(nil), c.members...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return degree[ranked[i]] > degree[ranked[j]]
	})
	if len(ranked) > centralWalletCount {
		ranked = ranked[:centralWalletCount]
	}
	r.CentralWallets = make([]string, len(ranked))
	for i, m := range ranked {
		r.CentralWallets[i] = g.Nodes[m].ID
	}

	r.Protocols = append([]string{}, c.protocols...)
	r.RiskFlags = e.flags(r, maxDegree)
	r.Unusual = !(len(r.RiskFlags) == 1 && r.RiskFlags[0] == entity.RiskFlagNormal)

	return r
}

// flags applies the independent anomaly rules; a report with no anomaly is flagged Normal
func (e *ClusterEngine) flags(r entity.ClusterReport, maxDegree int) []entity.RiskFlag {
	t := e.thresholds
	var flags []entity.RiskFlag

	if r.Density > t.DenseMinDensity && r.ClusterSize < t.DenseMaxSize {
		flags = append(flags, entity.RiskFlagDenseSmallCluster)
	}

	var txRate float64
	if r.ClusterSize > 0 {
		txRate = float64(r.TotalTransactions) / float64(r.ClusterSize)
	}
	if txRate > t.HighTxRate {
		flags = append(flags, entity.RiskFlagHighTxRate)
	}

	var centralShare float64
	if r.TotalTransactions > 0 {
		centralShare = float64(maxDegree) / float64(2*r.TotalTransactions)
	}
	if centralShare > t.CentralizedMinShare {
		flags = append(flags, entity.RiskFlagCentralizedFlow)
	}

	if len(flags) == 0 {
		flags = []entity.RiskFlag{entity.RiskFlagNormal}
	}
	return flags
}
