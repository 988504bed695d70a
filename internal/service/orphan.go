package service

import "context"

// OrphanReporter records blob keys whose compensating delete failed during an
// upload rollback, so the sweeper can retry them later. Reporting is
// best-effort and must never fail the request that triggered it.
type OrphanReporter interface {
	Report(ctx context.Context, blobKey string) error
}
