package filter

import (
	"context"
	"sync"

	"github.com/rushteam/ripplekit/core"
)

// SeenFilter 是已交互过滤器，剔除用户历史中已出现过的物品。
//
// 历史通过 core.HistoryStore 读取，同一用户的历史在过滤器内缓存，
// 一次请求只回源一次。过滤器可被多个请求并发复用。
type SeenFilter struct {
	store core.HistoryStore

	mu     sync.Mutex
	userID int64
	seen   map[int64]bool
	loaded bool
}

func NewSeenFilter(store core.HistoryStore) *SeenFilter {
	return &SeenFilter{store: store}
}

func (f *SeenFilter) Name() string {
	return "filter.seen"
}

func (f *SeenFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || f.store == nil {
		return false, nil
	}
	seen, err := f.seenSet(ctx, rctx.UserID)
	if err != nil {
		return false, err
	}
	return seen[item.ID], nil
}

func (f *SeenFilter) seenSet(ctx context.Context, userID int64) (map[int64]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded && f.userID == userID {
		return f.seen, nil
	}
	history, err := f.store.GetUserHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(history))
	for _, id := range history {
		seen[id] = true
	}
	f.userID = userID
	f.seen = seen
	f.loaded = true
	return seen, nil
}

var _ Filter = (*SeenFilter)(nil)
