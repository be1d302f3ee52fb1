package datastructure

import (
	"errors"
)

var (
	ErrEmptyHeap    = errors.New("heap is empty")
	ErrItemNotFound = errors.New("item not found in heap")
)

type PriorityQueueNode[T comparable] struct {
	Rank float64
	Item T
}

// MinHeap binary min-heap keyed by Rank with position tracking for DecreaseKey.
type MinHeap[T comparable] struct {
	heap []PriorityQueueNode[T]
	pos  map[T]int
}

func NewMinHeap[T comparable]() *MinHeap[T] {
	return &MinHeap[T]{
		heap: make([]PriorityQueueNode[T], 0),
		pos:  make(map[T]int),
	}
}

func parent(index int) int {
	return (index - 1) / 2
}

func leftChild(index int) int {
	return 2*index + 1
}

func rightChild(index int) int {
	return 2*index + 2
}

func (h *MinHeap[T]) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.pos[h.heap[i].Item] = i
	h.pos[h.heap[j].Item] = j
}

func (h *MinHeap[T]) heapifyUp(index int) {
	for index != 0 && h.heap[index].Rank < h.heap[parent(index)].Rank {
		h.swap(index, parent(index))
		index = parent(index)
	}
}

func (h *MinHeap[T]) heapifyDown(index int) {
	smallest := index
	left := leftChild(index)
	right := rightChild(index)

	if left < len(h.heap) && h.heap[left].Rank < h.heap[smallest].Rank {
		smallest = left
	}
	if right < len(h.heap) && h.heap[right].Rank < h.heap[smallest].Rank {
		smallest = right
	}
	if smallest != index {
		h.swap(index, smallest)
		h.heapifyDown(smallest)
	}
}

func (h *MinHeap[T]) Insert(node PriorityQueueNode[T]) {
	h.heap = append(h.heap, node)
	index := len(h.heap) - 1
	h.pos[node.Item] = index
	h.heapifyUp(index)
}

func (h *MinHeap[T]) GetMin() (PriorityQueueNode[T], error) {
	if len(h.heap) == 0 {
		return PriorityQueueNode[T]{}, ErrEmptyHeap
	}
	return h.heap[0], nil
}

func (h *MinHeap[T]) ExtractMin() (PriorityQueueNode[T], error) {
	if len(h.heap) == 0 {
		return PriorityQueueNode[T]{}, ErrEmptyHeap
	}
	root := h.heap[0]
	last := len(h.heap) - 1
	h.swap(0, last)
	h.heap = h.heap[:last]
	delete(h.pos, root.Item)
	if len(h.heap) > 0 {
		h.heapifyDown(0)
	}
	return root, nil
}

// DecreaseKey lowers the rank of an item already in the heap.
func (h *MinHeap[T]) DecreaseKey(node PriorityQueueNode[T]) error {
	index, ok := h.pos[node.Item]
	if !ok {
		return ErrItemNotFound
	}
	if node.Rank > h.heap[index].Rank {
		return errors.New("new rank is greater than current rank")
	}
	h.heap[index].Rank = node.Rank
	h.heapifyUp(index)
	return nil
}

func (h *MinHeap[T]) Contains(item T) bool {
	_, ok := h.pos[item]
	return ok
}

func (h *MinHeap[T]) Size() int {
	return len(h.heap)
}

func (h *MinHeap[T]) IsEmpty() bool {
	return len(h.heap) == 0
}
