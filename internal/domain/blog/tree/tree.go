// Package tree 维护博客评论树：一级评论按插入顺序排列，回复挂在父评论的 Replies 下。
// 所有函数都不修改入参，返回新的快照。
package tree

import "postify/internal/domain/blog/model"

// Placement 新评论最终挂载的位置
type Placement int

const (
	PlacedRoot Placement = iota
	PlacedReply
	// PlacedOrphan 指定了父评论但树中找不到，按一级评论处理
	PlacedOrphan
)

func (p Placement) String() string {
	switch p {
	case PlacedRoot:
		return "root"
	case PlacedReply:
		return "reply"
	case PlacedOrphan:
		return "orphan"
	default:
		return "unknown"
	}
}

// FindByID 深度优先查找，先一级评论再递归其回复，返回第一个命中
func FindByID(comments []model.Comment, id int64) (model.Comment, bool) {
	for _, c := range comments {
		if c.ID == id {
			return c, true
		}
		if found, ok := FindByID(c.Replies, id); ok {
			return found, true
		}
	}
	return model.Comment{}, false
}

// Insert 插入新评论
func Insert(comments []model.Comment, c model.Comment) ([]model.Comment, Placement) {
	if c.ParentID == nil {
		return appendCopy(comments, c), PlacedRoot
	}
	if out, ok := attach(comments, *c.ParentID, c); ok {
		return out, PlacedReply
	}
	return appendCopy(comments, c), PlacedOrphan
}

// attach 把回复追加到 id 命中的评论下，只复制命中路径上的切片
func attach(comments []model.Comment, parentID int64, reply model.Comment) ([]model.Comment, bool) {
	for i, c := range comments {
		if c.ID == parentID {
			c.Replies = appendCopy(c.Replies, reply)
			return replaceAt(comments, i, c), true
		}
		if replies, ok := attach(c.Replies, parentID, reply); ok {
			c.Replies = replies
			return replaceAt(comments, i, c), true
		}
	}
	return comments, false
}

// Remove 删除指定评论；删除一级评论会连同其全部回复一起移除
func Remove(comments []model.Comment, id int64) []model.Comment {
	if comments == nil {
		return nil
	}
	out := make([]model.Comment, 0, len(comments))
	for _, c := range comments {
		if c.ID == id {
			continue
		}
		if len(c.Replies) > 0 {
			c.Replies = Remove(c.Replies, id)
		}
		out = append(out, c)
	}
	return out
}

// SetActive 修改第一个命中评论的屏蔽状态；找不到时返回原切片和 false
func SetActive(comments []model.Comment, id int64, active bool) ([]model.Comment, bool) {
	for i, c := range comments {
		if c.ID == id {
			c.IsActive = active
			return replaceAt(comments, i, c), true
		}
		if replies, ok := SetActive(c.Replies, id, active); ok {
			c.Replies = replies
			return replaceAt(comments, i, c), true
		}
	}
	return comments, false
}

// Count 评论总数，包含所有层级的回复
func Count(comments []model.Comment) int {
	n := len(comments)
	for _, c := range comments {
		n += Count(c.Replies)
	}
	return n
}

func appendCopy(comments []model.Comment, c model.Comment) []model.Comment {
	out := make([]model.Comment, len(comments), len(comments)+1)
	copy(out, comments)
	return append(out, c)
}

func replaceAt(comments []model.Comment, i int, c model.Comment) []model.Comment {
	out := make([]model.Comment, len(comments))
	copy(out, comments)
	out[i] = c
	return out
}
