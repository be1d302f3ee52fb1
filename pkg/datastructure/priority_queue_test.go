package datastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func generateRandomInteger(rd *rand.Rand, min int, max int) int {
	return min + rd.Intn(max-min)
}

func TestPriorityQueue(t *testing.T) {
	rd := rand.New(rand.NewSource(7))
	pq := NewMinHeap[int32]()
	require.NotNil(t, pq)

	for i := 0; i < 10000; i++ {
		item := PriorityQueueNode[int32]{Rank: float64(generateRandomInteger(rd, 10, 10000)), Item: int32(i)}
		pq.Insert(item)

		if (i+1)%100 == 0 {
			item.Rank = float64(generateRandomInteger(rd, 0, int(item.Rank)))
			err := pq.DecreaseKey(item)
			assert.NoError(t, err)
		}
	}
	assert.Equal(t, 10000, pq.Size())

	prevItem, err := pq.ExtractMin()
	require.NoError(t, err)
	for i := 1; i < 10000; i++ {
		item, err := pq.ExtractMin()
		require.NoError(t, err)
		assert.LessOrEqual(t, prevItem.Rank, item.Rank)
		prevItem = item
	}
	assert.True(t, pq.IsEmpty())
}

func TestPriorityQueueDecreaseKey(t *testing.T) {
	pq := NewMinHeap[int32]()
	pq.Insert(PriorityQueueNode[int32]{Rank: 5, Item: 1})
	pq.Insert(PriorityQueueNode[int32]{Rank: 3, Item: 2})
	pq.Insert(PriorityQueueNode[int32]{Rank: 9, Item: 3})

	err := pq.DecreaseKey(PriorityQueueNode[int32]{Rank: 1, Item: 3})
	require.NoError(t, err)

	min, err := pq.GetMin()
	require.NoError(t, err)
	assert.Equal(t, int32(3), min.Item)
	assert.Equal(t, 1.0, min.Rank)

	assert.ErrorIs(t, pq.DecreaseKey(PriorityQueueNode[int32]{Rank: 0, Item: 42}), ErrItemNotFound)
	assert.Error(t, pq.DecreaseKey(PriorityQueueNode[int32]{Rank: 100, Item: 1}))
	assert.True(t, pq.Contains(2))
}

func TestPriorityQueueEmpty(t *testing.T) {
	pq := NewMinHeap[int32]()
	_, err := pq.ExtractMin()
	assert.ErrorIs(t, err, ErrEmptyHeap)
	_, err = pq.GetMin()
	assert.ErrorIs(t, err, ErrEmptyHeap)
}
