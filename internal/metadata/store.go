package metadata

import (
	"context"
	"errors"

	"github.com/bharatkse/image-storage-service/internal/models"
)

// ErrConditionFailed signals that a conditional Put lost to an existing record
// with the same primary key. It is distinguishable from every other failure so
// the upload coordinator can classify id collisions separately.
var ErrConditionFailed = errors.New("condition failed: record already exists")

// OwnerQuery is a range-bounded query against the owner+created_at index.
// CreatedFrom/CreatedTo are inclusive ISO-8601 bounds; empty means unbounded.
// StartToken resumes a prior page; an empty NextToken in the result means the
// matching set is exhausted.
type OwnerQuery struct {
	OwnerID     string
	CreatedFrom string
	CreatedTo   string
	ScanForward bool
	Limit       int
	StartToken  string
}

// Page is one store-side result page.
type Page struct {
	Items     []models.ImageRecord
	NextToken string
}

// Store is the narrow port the coordinators consume for image metadata. All
// operations are keyed; nothing is transactional across records. Production
// uses postgres; tests use the in-memory fake.
type Store interface {
	// Put writes a record. With ifNotExists set, the write only succeeds
	// when no record with the same ImageID exists; losing that condition
	// returns ErrConditionFailed.
	Put(ctx context.Context, rec models.ImageRecord, ifNotExists bool) error

	// Get fetches a record by primary key. The bool reports presence;
	// a missing record is not an error.
	Get(ctx context.Context, imageID string) (models.ImageRecord, bool, error)

	// Delete removes a record by primary key. Deleting a missing record is
	// not an error.
	Delete(ctx context.Context, imageID string) error

	// QueryByOwner runs one page of an owner+created_at range query.
	QueryByOwner(ctx context.Context, q OwnerQuery) (Page, error)

	// QueryByOwnerHash looks for records matching owner and content hash
	// on the secondary index, up to limit.
	QueryByOwnerHash(ctx context.Context, ownerID, contentHash string, limit int) ([]models.ImageRecord, error)
}
