package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"technoplus/internal/domain/record"
)

func TestBuildTree(t *testing.T) {
	flat := []Category{
		{ID: "phones", Name: "Phones"},
		{ID: "cases", Name: "Cases", ParentID: "accessories"},
		{ID: "accessories", Name: "Accessories"},
		{ID: "android", Name: "Android", ParentID: "phones"},
		{ID: "pixel", Name: "Pixel", ParentID: "android"},
		{ID: "orphan", Name: "Orphan", ParentID: "deleted"},
	}

	roots := BuildTree(flat)

	require.Len(t, roots, 3)
	assert.Equal(t, "phones", roots[0].ID)
	assert.Equal(t, "accessories", roots[1].ID)
	assert.Equal(t, "orphan", roots[2].ID)

	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, "android", roots[0].Children[0].ID)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, "pixel", roots[0].Children[0].Children[0].ID)
	require.Len(t, roots[1].Children, 1)
	assert.Equal(t, "cases", roots[1].Children[0].ID)
}

func TestBuildTree_Cycle(t *testing.T) {
	flat := []Category{
		{ID: "a", Name: "A", ParentID: "b"},
		{ID: "b", Name: "B", ParentID: "a"},
		{ID: "self", Name: "Self", ParentID: "self"},
	}

	roots := BuildTree(flat)

	var visited []string
	Walk(roots, func(c Category) { visited = append(visited, c.ID) })
	assert.ElementsMatch(t, []string{"a", "b", "self"}, visited)
}

func TestWalk_ParentBeforeChildren(t *testing.T) {
	roots := BuildTree([]Category{
		{ID: "child", ParentID: "root"},
		{ID: "root"},
	})

	var order []string
	Walk(roots, func(c Category) { order = append(order, c.ID) })

	assert.Equal(t, []string{"root", "child"}, order)
}

func TestFromRecords(t *testing.T) {
	recs := []record.Record{
		{ID: "phones", Data: []byte(`{"id":"phones","name":"Phones","active":true}`)},
		{ID: "android", Data: []byte(`{"id":"android","name":"Android","parent_id":"phones","active":true}`)},
		{ID: "pixel", Data: []byte(`{"name":"Pixel","parent_id":"android"}`)},
	}

	roots, stored, err := FromRecords(recs)
	require.NoError(t, err)

	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 1)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, "pixel", roots[0].Children[0].Children[0].ID)

	require.Len(t, stored, 3)
	assert.Equal(t, "phones", stored[0].ID)
	assert.Equal(t, "android", stored[1].ID)
	assert.Equal(t, "pixel", stored[2].ID)

	android, err := record.Decode[Category](stored[1])
	require.NoError(t, err)
	require.Len(t, android.Children, 1)
	assert.Equal(t, "Pixel", android.Children[0].Name)
}

func TestFromRecords_InvalidData(t *testing.T) {
	_, _, err := FromRecords([]record.Record{{ID: "x", Data: []byte(`[1,2]`)}})
	assert.ErrorIs(t, err, record.ErrInvalidData)
}
