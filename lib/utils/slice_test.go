package utils_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gauge-automation/lib/utils"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	assert.Equal(t, []string{"0xab", "0xcd"}, utils.Map([]string{"0xAB", "0xCd"}, strings.ToLower))
}

func TestFilter(t *testing.T) {
	assert.Equal(t, []int{2, 4}, utils.Filter([]int{1, 2, 3, 4}, func(i int) bool { return i%2 == 0 }))
}

func TestChunk(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, utils.Chunk([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1, 2}}, utils.Chunk([]int{1, 2}, 5))
	assert.Equal(t, [][]int{{1, 2}}, utils.Chunk([]int{1, 2}, 0))
	assert.Nil(t, utils.Chunk([]int{}, 3))

	chunks := utils.Chunk([]int{1, 2, 3}, 2)
	chunks[0] = append(chunks[0], 9)
	assert.Equal(t, []int{3}, chunks[1])
}

func TestUnique(t *testing.T) {
	res := utils.Unique([]string{"0xA", "0xb", "0xa", "0xB"}, strings.ToLower)
	assert.Equal(t, []string{"0xA", "0xb"}, res)
}

func TestIndexOf(t *testing.T) {
	assert.Equal(t, 1, utils.IndexOf([]string{"a", "b"}, "b"))
	assert.Equal(t, -1, utils.IndexOf([]string{"a", "b"}, "c"))
}

func TestPromiseGo(t *testing.T) {
	res, err := utils.PromiseGo(func() (int, error) { return 7, nil }).Await(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 7, *res)

	_, err = utils.PromiseGo(func() (int, error) { return 0, errors.New("boom") }).Await(context.Background())
	assert.EqualError(t, err, "boom")
}
