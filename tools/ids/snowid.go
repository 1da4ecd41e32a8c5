// Package ids issues process-unique, time-ordered 63-bit ids. Connections
// are numbered with them so log lines from one socket can be correlated
// across nodes.
package ids

import (
	"strconv"
	"sync"
	"time"
)

const (
	nodeBits = 10
	seqBits  = 12

	maxNode = 1<<nodeBits - 1
	seqMask = 1<<seqBits - 1
	tsMask  = 1<<41 - 1
)

// Epoch is the zero point of the timestamp bits.
var Epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Generator hands out ids for a single node. Safe for concurrent use.
type Generator struct {
	mu     sync.Mutex
	node   int64
	seq    int64
	lastMS int64
	now    func() time.Time
}

// NewGenerator returns a generator for node; out of range nodes become 1.
func NewGenerator(node int64) *Generator {
	g := &Generator{now: time.Now}
	g.setNode(node)
	return g
}

func (g *Generator) setNode(node int64) {
	if node < 0 || node > maxNode {
		node = 1
	}
	g.mu.Lock()
	g.node = node
	g.mu.Unlock()
}

func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().Sub(Epoch).Milliseconds()
	if ms < g.lastMS {
		// the wall clock stepped back; keep issuing from the last tick
		ms = g.lastMS
	}
	if ms == g.lastMS {
		g.seq = (g.seq + 1) & seqMask
		if g.seq == 0 {
			// sequence exhausted for this tick, borrow the next one
			ms++
		}
	} else {
		g.seq = 0
	}
	g.lastMS = ms
	return (ms&tsMask)<<(nodeBits+seqBits) | g.node<<seqBits | g.seq
}

// Parts splits an id back into its issue time, node and sequence.
func Parts(id int64) (at time.Time, node, seq int64) {
	ms := id >> (nodeBits + seqBits)
	return Epoch.Add(time.Duration(ms) * time.Millisecond), (id >> seqBits) & maxNode, id & seqMask
}

var std = NewGenerator(1)

// SetNodeID sets the node bits of the package generator. Call it once
// from main before the first id is issued.
func SetNodeID(node int64) { std.setNode(node) }

func Generate() int64 { return std.Next() }

func GenerateString() string {
	return strconv.FormatInt(Generate(), 10)
}
