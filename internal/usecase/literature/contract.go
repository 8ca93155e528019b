package literature

import (
	"context"

	domlit "github.com/yuyuan/litportal/internal/domain/literature"
	"github.com/yuyuan/litportal/internal/domain/query"
)

// Fetcher is the backend contract the store reads through.
type Fetcher interface {
	PageLiteratures(ctx context.Context, req query.Request) (domlit.Page, error)
	GetLiterature(ctx context.Context, id int64) (domlit.Detail, error)
}
