package euf

// This file deals with the allocation of argument tuples.
// Nodes are created and destroyed in LIFO order, so argument tuples are sliced out of
// big chunks and released by moving the free pointer back to a scope checkpoint.

const (
	nbArgsAlloc = 1 << 16 // How many argument slots does a chunk hold?
)

type checkpoint struct {
	chunk   int // Index of the current chunk when the scope was opened
	ptrFree int // First free slot of that chunk at that time
}

type arena struct {
	chunks  [][]NodeID // Backing arrays, sliced to make argument tuples
	ptrFree int        // Index of the first free item in the last chunk
	scopes  []checkpoint
}

// newArgs returns a slice containing the given node ids.
// It is taken from the current chunk if possible, or from a new one.
func (a *arena) newArgs(args []NodeID) []NodeID {
	if len(args) == 0 {
		return nil
	}
	if len(a.chunks) == 0 || a.ptrFree+len(args) > len(a.chunks[len(a.chunks)-1]) {
		size := nbArgsAlloc
		if len(args) > size {
			size = len(args)
		}
		a.chunks = append(a.chunks, make([]NodeID, size))
		a.ptrFree = 0
	}
	chunk := a.chunks[len(a.chunks)-1]
	copy(chunk[a.ptrFree:], args)
	a.ptrFree += len(args)
	return chunk[a.ptrFree-len(args) : a.ptrFree : a.ptrFree]
}

func (a *arena) pushScope() {
	a.scopes = append(a.scopes, checkpoint{chunk: len(a.chunks) - 1, ptrFree: a.ptrFree})
}

// popScope releases every tuple allocated since the nb-th innermost checkpoint.
func (a *arena) popScope(nb int) {
	lim := len(a.scopes) - nb
	cp := a.scopes[lim]
	a.scopes = a.scopes[:lim]
	if cp.chunk < 0 {
		a.chunks = a.chunks[:0]
		a.ptrFree = 0
		return
	}
	a.chunks = a.chunks[:cp.chunk+1]
	a.ptrFree = cp.ptrFree
}

// size returns the number of slots in use, counting the unused tails of full chunks.
func (a *arena) size() int {
	if len(a.chunks) == 0 {
		return 0
	}
	total := a.ptrFree
	for _, c := range a.chunks[:len(a.chunks)-1] {
		total += len(c)
	}
	return total
}
