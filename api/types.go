package api

import (
	"context"

	"taskflow-api/domain"
)

// Publisher announces committed mutations to interested consumers. Publish
// failures never fail the originating request; they are logged and dropped.
type Publisher interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
}

// Mutation request bodies larger than this are rejected.
const requestBodyMaxSize = 1 << 20
