package book

import "github.com/simonvc/ledgerbook/internal/ledger"

// accountTree is an arena over a chart snapshot. Accounts are addressed by
// index; children holds the indexes of each node's direct children.
type accountTree struct {
	nodes     []ledger.Account
	index     map[string]int
	qualnames map[string]int
	children  [][]int
}

func newAccountTree(accounts []ledger.Account) *accountTree {
	t := &accountTree{
		nodes:     accounts,
		index:     make(map[string]int, len(accounts)),
		qualnames: make(map[string]int, len(accounts)),
		children:  make([][]int, len(accounts)),
	}
	for i, a := range accounts {
		t.index[a.Code] = i
		t.qualnames[a.Qualname] = i
	}
	for i, a := range accounts {
		if p, ok := t.index[a.ParentCode]; ok && a.ParentCode != "" {
			t.children[p] = append(t.children[p], i)
		}
	}
	return t
}

func (t *accountTree) lookup(code string) (int, bool) {
	i, ok := t.index[code]
	return i, ok
}

func (t *accountTree) byQualname(qualname string) (int, bool) {
	i, ok := t.qualnames[qualname]
	return i, ok
}

func (t *accountTree) isLeaf(i int) bool {
	return len(t.children[i]) == 0
}

// leaves returns the leaf descendants of node i, or i itself for a leaf.
func (t *accountTree) leaves(i int) []int {
	var out []int
	stack := []int{i}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if t.isLeaf(n) {
			out = append(out, n)
			continue
		}
		stack = append(stack, t.children[n]...)
	}
	return out
}
