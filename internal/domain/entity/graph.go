package entity

// Node types record the role a wallet had when first seen
const (
	NodeTypeSender   = "sender"
	NodeTypeReceiver = "receiver"
)

// Node represents a wallet in the transaction graph
type Node struct {
	ID               string  `json:"id"`
	Label            string  `json:"label"`
	Entity           string  `json:"entity"`
	Type             string  `json:"type"`
	PreBalance       float64 `json:"pre_balance"`
	PostBalance      float64 `json:"post_balance"`
	NetBalanceChange float64 `json:"net_balance_change"`
	NativeAmount     float64 `json:"native_sol_amount"`
}

// Edge represents a single transfer between two wallets
type Edge struct {
	Source    string  `json:"source"`
	Target    string  `json:"target"`
	Amount    float64 `json:"amount"`
	Symbol    string  `json:"symbol"`
	Token     string  `json:"token"`
	Timestamp string  `json:"timestamp"`
	TxType    string  `json:"tx_type"`
	Program   string  `json:"program"`
	Signature string  `json:"signature"`
}

// Graph is an undirected multigraph over wallet addresses.
// Nodes keep insertion order; parallel edges between the same pair are allowed.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []Edge  `json:"edges"`

	index map[string]int
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		Nodes: []*Node{},
		Edges: []Edge{},
		index: make(map[string]int),
	}
}

// Node returns the node with the given id, or nil
func (g *Graph) Node(id string) *Node {
	if g == nil {
		return nil
	}
	if g.index == nil {
		for _, n := range g.Nodes {
			if n.ID == id {
				return n
			}
		}
		return nil
	}
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.Nodes[i]
}

// AddNode appends n unless a node with the same id exists. It reports whether n was added.
func (g *Graph) AddNode(n *Node) bool {
	if g.index == nil {
		g.index = make(map[string]int, len(g.Nodes))
		for i, existing := range g.Nodes {
			g.index[existing.ID] = i
		}
	}
	if _, ok := g.index[n.ID]; ok {
		return false
	}
	g.index[n.ID] = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
	return true
}

// AddEdge appends e
func (g *Graph) AddEdge(e Edge) {
	g.Edges = append(g.Edges, e)
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	if g == nil {
		return 0
	}
	return len(g.Nodes)
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return len(g.Edges)
}
