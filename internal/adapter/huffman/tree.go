package huffman

import "container/heap"

// node is either a leaf holding a byte or an internal node with two
// children. order breaks weight ties: leaves use their byte value and
// internal nodes 256 plus their creation sequence.
type node struct {
	symbol byte
	weight int
	order  int
	left   *node
	right  *node
}

func (n *node) leaf() bool {
	return n.left == nil && n.right == nil
}

// Tree is a Huffman prefix tree over byte symbols.
type Tree struct {
	root *node
}

type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	return h[i].order < h[j].order
}

func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) { *h = append(*h, x.(*node)) }

func (h *nodeHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}

// buildTree merges the two lightest nodes until one remains. Returns nil
// when every frequency is zero.
func buildTree(freq *[256]int) *Tree {
	h := &nodeHeap{}
	for b, w := range freq {
		if w > 0 {
			*h = append(*h, &node{symbol: byte(b), weight: w, order: b})
		}
	}
	if h.Len() == 0 {
		return nil
	}
	heap.Init(h)

	seq := 256
	for h.Len() > 1 {
		a := heap.Pop(h).(*node)
		b := heap.Pop(h).(*node)
		heap.Push(h, &node{weight: a.weight + b.weight, order: seq, left: a, right: b})
		seq++
	}
	return &Tree{root: heap.Pop(h).(*node)}
}

// Codes returns the bit path of every symbol in the tree, as strings of
// '0' and '1'. A tree with a single symbol assigns it "0".
func (t *Tree) Codes() map[byte]string {
	codes := make(map[byte]string)
	if t == nil || t.root == nil {
		return codes
	}
	if t.root.leaf() {
		codes[t.root.symbol] = "0"
		return codes
	}
	var walk func(n *node, path []byte)
	walk = func(n *node, path []byte) {
		if n.leaf() {
			codes[n.symbol] = string(path)
			return
		}
		walk(n.left, append(path, '0'))
		walk(n.right, append(path, '1'))
	}
	walk(t.root, make([]byte, 0, 16))
	return codes
}
