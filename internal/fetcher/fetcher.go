package fetcher

import (
	"context"

	"github.com/IshaanNene/PlayaETL/internal/types"
)

// Getter retrieves the content at a URL with a single GET request.
type Getter interface {
	Get(ctx context.Context, rawURL string) (*types.Response, error)
}
