package parser

import (
	"github.com/IshaanNene/PlayaETL/internal/types"
)

// Parser turns a fetched product page into a ProductDetail.
type Parser interface {
	// Parse extracts every detail field it can find. Missing elements leave
	// the corresponding field nil; only an unreadable document is an error.
	Parse(resp *types.Response) (*types.ProductDetail, error)
}
