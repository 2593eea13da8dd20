package coa

import "sort"

// Node is one account in the hierarchy tree.
type Node struct {
	Account  Account
	Parent   *Node
	Children []*Node
}

// Tree indexes a company's chart by normalized code so hierarchy questions
// (parent, level, siblings) are answered from one structure instead of
// re-derived by string slicing at every call site.
type Tree struct {
	byCode map[string]*Node
	byID   map[string]*Node
	roots  []*Node
}

// NewTree builds the hierarchy from a flat account list. Accounts whose
// parent code is absent become roots; the tree never fails to build.
func NewTree(accounts []Account) *Tree {
	t := &Tree{
		byCode: make(map[string]*Node, len(accounts)),
		byID:   make(map[string]*Node, len(accounts)),
	}
	for _, acc := range accounts {
		acc.Code = NormalizeCode(acc.Code)
		node := &Node{Account: acc}
		t.byCode[acc.Code] = node
		t.byID[acc.ID.String()] = node
	}
	for _, node := range t.byCode {
		parentCode, ok := ParentCode(node.Account.Code)
		if !ok {
			t.roots = append(t.roots, node)
			continue
		}
		parent, found := t.byCode[parentCode]
		if !found {
			t.roots = append(t.roots, node)
			continue
		}
		node.Parent = parent
		parent.Children = append(parent.Children, node)
	}
	sortNodes(t.roots)
	for _, node := range t.byCode {
		sortNodes(node.Children)
	}
	return t
}

// Accounts returns every account in the tree sorted by normalized code.
func (t *Tree) Accounts() []Account {
	out := make([]Account, 0, len(t.byCode))
	for _, node := range t.byCode {
		out = append(out, node.Account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ByID looks up a node by account id.
func (t *Tree) ByID(id string) (*Node, bool) {
	node, ok := t.byID[id]
	return node, ok
}

// ByCode looks up a node by account code in any accepted format.
func (t *Tree) ByCode(code string) (*Node, bool) {
	node, ok := t.byCode[NormalizeCode(code)]
	return node, ok
}

// Roots returns the level-1 nodes sorted by code.
func (t *Tree) Roots() []*Node {
	return t.roots
}

// HeaderName returns the name of the header account owning the given level-1
// segment, or the empty string when no such header exists. Posting accounts
// squatting on a level-1 code do not label the segment.
func (t *Tree) HeaderName(firstSegment string) string {
	node, ok := t.byCode[firstSegment+"-000-000-000"]
	if !ok || node.Account.IsPosting() {
		return ""
	}
	return node.Account.Name
}

func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Account.Code < nodes[j].Account.Code
	})
}
