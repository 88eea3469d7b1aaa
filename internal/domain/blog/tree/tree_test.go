package tree

import (
	"testing"

	"postify/internal/domain/blog/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(id int64) *int64 { return &id }

func comment(id int64, parent *int64, replies ...model.Comment) model.Comment {
	return model.Comment{ID: id, ParentID: parent, IsActive: true, Replies: replies}
}

func TestFindByID(t *testing.T) {
	comments := []model.Comment{
		comment(1, nil, comment(2, ptr(1)), comment(3, ptr(1))),
		comment(4, nil),
	}

	found, ok := FindByID(comments, 3)
	require.True(t, ok)
	assert.Equal(t, int64(3), found.ID)

	found, ok = FindByID(comments, 4)
	require.True(t, ok)
	assert.Equal(t, int64(4), found.ID)

	_, ok = FindByID(comments, 99)
	assert.False(t, ok)

	_, ok = FindByID(nil, 1)
	assert.False(t, ok)
}

func TestInsertRoot(t *testing.T) {
	comments := []model.Comment{comment(1, nil)}

	out, placed := Insert(comments, comment(2, nil))

	assert.Equal(t, PlacedRoot, placed)
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].ID)
	assert.Equal(t, int64(2), out[1].ID)
	assert.Len(t, comments, 1)
}

func TestInsertUnderFoundParent(t *testing.T) {
	comments := []model.Comment{{ID: 1, IsActive: true, Replies: []model.Comment{}}}

	out, placed := Insert(comments, comment(5, ptr(1)))

	assert.Equal(t, PlacedReply, placed)
	require.Len(t, out, 1)
	require.Len(t, out[0].Replies, 1)
	assert.Equal(t, int64(5), out[0].Replies[0].ID)
	// 原树不变
	assert.Empty(t, comments[0].Replies)
}

func TestInsertCreatesRepliesWhenAbsent(t *testing.T) {
	comments := []model.Comment{comment(1, nil)}
	require.Nil(t, comments[0].Replies)

	out, placed := Insert(comments, comment(2, ptr(1)))

	assert.Equal(t, PlacedReply, placed)
	require.Len(t, out[0].Replies, 1)
	assert.Nil(t, comments[0].Replies)
}

func TestInsertUnderNestedParent(t *testing.T) {
	comments := []model.Comment{comment(1, nil, comment(2, ptr(1)))}

	out, placed := Insert(comments, comment(3, ptr(2)))

	assert.Equal(t, PlacedReply, placed)
	require.Len(t, out[0].Replies, 1)
	require.Len(t, out[0].Replies[0].Replies, 1)
	assert.Equal(t, int64(3), out[0].Replies[0].Replies[0].ID)
}

func TestInsertUnderMissingParentFallsBackToRoot(t *testing.T) {
	comments := []model.Comment{comment(1, nil)}

	out, placed := Insert(comments, comment(7, ptr(99)))

	assert.Equal(t, PlacedOrphan, placed)
	require.Len(t, out, 2)
	assert.Equal(t, int64(7), out[1].ID)
	assert.Nil(t, out[0].Replies)
}

func TestInsertKeepsRootOrder(t *testing.T) {
	var comments []model.Comment
	for _, id := range []int64{3, 1, 2} {
		comments, _ = Insert(comments, comment(id, nil))
	}

	ids := make([]int64, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []int64{3, 1, 2}, ids)
}

func TestRemoveDropsSubtree(t *testing.T) {
	comments := []model.Comment{comment(1, nil, comment(2, ptr(1)), comment(3, ptr(1)))}

	out := Remove(comments, 1)

	assert.Empty(t, out)
	_, ok := FindByID(out, 2)
	assert.False(t, ok)
	_, ok = FindByID(out, 3)
	assert.False(t, ok)
	assert.Len(t, comments, 1)
}

func TestRemoveLeavesSiblingsUntouched(t *testing.T) {
	r2 := comment(2, nil, comment(5, ptr(2)))
	comments := []model.Comment{comment(1, nil), r2}

	out := Remove(comments, 1)

	require.Len(t, out, 1)
	assert.Equal(t, r2, out[0])
}

func TestRemoveReply(t *testing.T) {
	comments := []model.Comment{comment(1, nil, comment(2, ptr(1)), comment(3, ptr(1)))}

	out := Remove(comments, 2)

	require.Len(t, out, 1)
	require.Len(t, out[0].Replies, 1)
	assert.Equal(t, int64(3), out[0].Replies[0].ID)
	assert.Len(t, comments[0].Replies, 2)
}

func TestRemoveMissingIsNoop(t *testing.T) {
	comments := []model.Comment{comment(1, nil, comment(2, ptr(1))), comment(4, nil)}

	out := Remove(comments, 99)

	assert.Equal(t, comments, out)
}

func TestSetActiveFlipsExactlyOneTarget(t *testing.T) {
	comments := []model.Comment{
		comment(1, nil, comment(2, ptr(1))),
		comment(3, nil),
	}

	out, ok := SetActive(comments, 2, false)

	require.True(t, ok)
	assert.True(t, out[0].IsActive)
	assert.False(t, out[0].Replies[0].IsActive)
	assert.True(t, out[1].IsActive)
	// 原树不变
	assert.True(t, comments[0].Replies[0].IsActive)
}

func TestSetActiveMissing(t *testing.T) {
	comments := []model.Comment{comment(1, nil)}

	out, ok := SetActive(comments, 42, false)

	assert.False(t, ok)
	assert.Equal(t, comments, out)
}

func TestCount(t *testing.T) {
	comments := []model.Comment{
		comment(1, nil, comment(2, ptr(1), comment(5, ptr(2))), comment(3, ptr(1))),
		comment(4, nil),
	}

	assert.Equal(t, 5, Count(comments))
	assert.Equal(t, 0, Count(nil))
}

func TestPlacementString(t *testing.T) {
	assert.Equal(t, "root", PlacedRoot.String())
	assert.Equal(t, "reply", PlacedReply.String())
	assert.Equal(t, "orphan", PlacedOrphan.String())
	assert.Equal(t, "unknown", Placement(9).String())
}
