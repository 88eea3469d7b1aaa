package repository

import (
	"sync"

	"postify/internal/domain/blog/model"
	"postify/internal/domain/blog/tree"
)

// BlogRepository 客户端博客状态：首页列表、我的博客、当前打开的博客
// 所有读取返回副本，调用方修改不会影响内部状态
type BlogRepository interface {
	Feed() []model.Blog
	Next() string
	SetFeed(blogs []model.Blog, next string, firstPage bool)

	Mine() []model.Blog
	SetMine(blogs []model.Blog)

	Current() (model.Blog, bool)
	SetCurrent(blog model.Blog)

	Prepend(blog model.Blog)
	Replace(blog model.Blog)
	Delete(id int64)

	ToggleLike(id int64)
	MarkRead(id int64)

	AddComment(blogID int64, c model.Comment) (tree.Placement, bool)
	RemoveComment(blogID, commentID int64) bool

	Reset()
}

type blogRepository struct {
	mu      sync.RWMutex
	feed    []model.Blog
	next    string
	mine    []model.Blog
	current *model.Blog
}

func NewBlogRepository() BlogRepository {
	return &blogRepository{}
}

func (r *blogRepository) Feed() []model.Blog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneBlogs(r.feed)
}

func (r *blogRepository) Next() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.next
}

// SetFeed 第一页直接替换，后续页按 id 去重后追加
func (r *blogRepository) SetFeed(blogs []model.Blog, next string, firstPage bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next = next
	if firstPage {
		r.feed = cloneBlogs(blogs)
		return
	}
	r.feed = AppendUnique(r.feed, blogs)
}

func (r *blogRepository) Mine() []model.Blog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneBlogs(r.mine)
}

func (r *blogRepository) SetMine(blogs []model.Blog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mine = cloneBlogs(blogs)
}

func (r *blogRepository) Current() (model.Blog, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return model.Blog{}, false
	}
	return r.current.Clone(), true
}

func (r *blogRepository) SetCurrent(blog model.Blog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := blog.Clone()
	r.current = &b
}

// Prepend 新建的博客放在首页和我的博客最前面
func (r *blogRepository) Prepend(blog model.Blog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feed = append([]model.Blog{blog.Clone()}, r.feed...)
	r.mine = append([]model.Blog{blog.Clone()}, r.mine...)
}

// Replace 用服务端返回的新版本覆盖同 id 的博客
func (r *blogRepository) Replace(blog model.Blog) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.update(blog.ID, func(b *model.Blog) { *b = blog.Clone() })
}

func (r *blogRepository) Delete(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.feed = removeBlog(r.feed, id)
	r.mine = removeBlog(r.mine, id)
	if r.current != nil && r.current.ID == id {
		r.current = nil
	}
}

// ToggleLike 点赞数加减 1 并翻转 is_liked
func (r *blogRepository) ToggleLike(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.update(id, func(b *model.Blog) {
		if b.IsLiked {
			b.LikeCount--
		} else {
			b.LikeCount++
		}
		b.IsLiked = !b.IsLiked
	})
}

// MarkRead 只有第一次阅读才计数
func (r *blogRepository) MarkRead(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.update(id, func(b *model.Blog) {
		if b.IsRead {
			return
		}
		b.ReadCount++
		b.IsRead = true
	})
}

// AddComment 把服务端确认的评论挂到首页、我的博客、当前博客中所有同 id 博客的评论树上
// 返回第一份副本上的挂载位置；本地没有加载该博客时返回 false
func (r *blogRepository) AddComment(blogID int64, c model.Comment) (tree.Placement, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		placed tree.Placement
		found  bool
	)
	r.update(blogID, func(b *model.Blog) {
		var p tree.Placement
		b.Comments, p = tree.Insert(b.Comments, c)
		if !found {
			placed, found = p, true
		}
	})
	return placed, found
}

func (r *blogRepository) RemoveComment(blogID, commentID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := false
	r.update(blogID, func(b *model.Blog) {
		b.Comments = tree.Remove(b.Comments, commentID)
		found = true
	})
	return found
}

func (r *blogRepository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feed, r.mine, r.current, r.next = nil, nil, nil, ""
}

// update 对三处状态中同 id 的博客执行 fn，调用方持有写锁
func (r *blogRepository) update(id int64, fn func(b *model.Blog)) {
	for i := range r.feed {
		if r.feed[i].ID == id {
			fn(&r.feed[i])
		}
	}
	for i := range r.mine {
		if r.mine[i].ID == id {
			fn(&r.mine[i])
		}
	}
	if r.current != nil && r.current.ID == id {
		fn(r.current)
	}
}

// AppendUnique 追加 more 中 id 尚未出现的博客
func AppendUnique(list, more []model.Blog) []model.Blog {
	seen := make(map[int64]struct{}, len(list))
	out := make([]model.Blog, 0, len(list)+len(more))
	for _, b := range list {
		seen[b.ID] = struct{}{}
		out = append(out, b)
	}
	for _, b := range more {
		if _, ok := seen[b.ID]; ok {
			continue
		}
		seen[b.ID] = struct{}{}
		out = append(out, b.Clone())
	}
	return out
}

func removeBlog(list []model.Blog, id int64) []model.Blog {
	if list == nil {
		return nil
	}
	out := make([]model.Blog, 0, len(list))
	for _, b := range list {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

func cloneBlogs(list []model.Blog) []model.Blog {
	if list == nil {
		return nil
	}
	out := make([]model.Blog, len(list))
	for i, b := range list {
		out[i] = b.Clone()
	}
	return out
}
