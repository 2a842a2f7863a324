package utils

import "fmt"

// MailBox carries typed messages between NP workers. Senders queue with
// Post, flush with Deliver, and receivers drain their channel with
// Receive; the channels are buffered for the all-to-all worst case so a
// post-deliver-receive round needs no extra synchronization.
type MailBox[T any] struct {
	NP       int
	chans    []chan []T
	outboxes []map[int][]T
	Inbox    [][]T
}

func NewMailBox[T any](np int) *MailBox[T] {
	mb := &MailBox[T]{
		NP:       np,
		chans:    make([]chan []T, np),
		outboxes: make([]map[int][]T, np),
		Inbox:    make([][]T, np),
	}
	for n := 0; n < np; n++ {
		mb.chans[n] = make(chan []T, np)
		mb.outboxes[n] = make(map[int][]T)
	}
	return mb
}

// Post queues msg from worker from to worker to. Nothing moves until
// Deliver runs on the sender.
func (mb *MailBox[T]) Post(from, to int, msg T) {
	if to < 0 || to > mb.NP-1 {
		panic(fmt.Sprintf("target worker %d out of bounds", to))
	}
	mb.outboxes[from][to] = append(mb.outboxes[from][to], msg)
}

// PostToAll queues msg to every worker except the sender.
func (mb *MailBox[T]) PostToAll(from int, msg T) {
	for to := 0; to < mb.NP; to++ {
		if to != from {
			mb.Post(from, to, msg)
		}
	}
}

// Deliver flushes worker from's outboxes into the target channels.
func (mb *MailBox[T]) Deliver(from int) {
	for to, msgs := range mb.outboxes[from] {
		if len(msgs) != 0 {
			mb.chans[to] <- msgs
		}
		delete(mb.outboxes[from], to)
	}
}

// Receive drains worker w's channel into its inbox without blocking and
// returns the accumulated messages.
func (mb *MailBox[T]) Receive(w int) []T {
	for {
		select {
		case msgs := <-mb.chans[w]:
			mb.Inbox[w] = append(mb.Inbox[w], msgs...)
		default:
			return mb.Inbox[w]
		}
	}
}

func (mb *MailBox[T]) Clear(w int) { mb.Inbox[w] = mb.Inbox[w][:0] }

// RankPartition splits n items into contiguous per-rank ranges with a
// maximum imbalance of one item.
type RankPartition struct {
	N      int
	Size   int
	Ranges [][2]int
}

func NewRankPartition(size, n int) (rp *RankPartition) {
	rp = &RankPartition{N: n, Size: size, Ranges: make([][2]int, size)}
	for r := 0; r < size; r++ {
		rp.Ranges[r] = rp.split1D(r)
	}
	return
}

func (rp *RankPartition) split1D(rank int) (bucket [2]int) {
	var (
		nper             = rp.N / rp.Size
		remainder        = rp.N % rp.Size
		startAdd, endAdd int
	)
	if remainder != 0 { // spread the remainder over the first ranks evenly
		if rank+1 > remainder {
			startAdd = remainder
		} else {
			startAdd = rank
			endAdd = 1
		}
	}
	bucket[0] = rank*nper + startAdd
	bucket[1] = bucket[0] + nper + endAdd
	return
}

// Owner finds the rank whose range contains item i, starting from a
// proportional guess and walking at most one step.
func (rp *RankPartition) Owner(i int) (rank int) {
	if i < 0 || i >= rp.N {
		return -1
	}
	rank = rp.Size * i / rp.N
	for !(rp.Ranges[rank][0] <= i && i < rp.Ranges[rank][1]) {
		if rp.Ranges[rank][0] > i {
			rank--
		} else {
			rank++
		}
		if rank == -1 || rank == rp.Size {
			return -1
		}
	}
	return
}

func (rp *RankPartition) Range(rank int) (lo, hi int) {
	lo, hi = rp.Ranges[rank][0], rp.Ranges[rank][1]
	return
}

// LocalCount is the number of items rank owns.
func (rp *RankPartition) LocalCount(rank int) int {
	lo, hi := rp.Range(rank)
	return hi - lo
}

// LocalIndex converts a global item index to the owning rank's local
// numbering.
func (rp *RankPartition) LocalIndex(i int) (local, rank int) {
	rank = rp.Owner(i)
	if rank < 0 {
		return -1, rank
	}
	local = i - rp.Ranges[rank][0]
	return
}

// GlobalIndex converts rank-local numbering back to the global index.
func (rp *RankPartition) GlobalIndex(local, rank int) int {
	return rp.Ranges[rank][0] + local
}

// Comm is the communicator a finite element space is built against.
// This build ships single-process: Rank and Size degrade to 0 and 1 and
// every element is owned, so distributed and serial callers share one
// code path.
type Comm struct {
	rank, size int
	Partition  *RankPartition
}

// SingleRank owns all n items on rank 0.
func SingleRank(n int) Comm {
	return Comm{rank: 0, size: 1, Partition: NewRankPartition(1, n)}
}

func (c Comm) Rank() int { return c.rank }
func (c Comm) Size() int { return c.size }

// Owns reports whether item i lives on this rank.
func (c Comm) Owns(i int) bool {
	return c.Partition != nil && c.Partition.Owner(i) == c.rank
}
