package integration

import (
	"context"
	"errors"
)

// ---------------------------------------------------------------------------
// CatalogGateway Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrPlatformNotConfigured   = errors.New("integration: platform not configured")
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrPlatformRateLimited     = errors.New("integration: platform rate limited")

	// Lookup errors
	ErrProductNotFound  = errors.New("integration: remote product not found")
	ErrLocationNotFound = errors.New("integration: no active stock location")

	// Bulk export errors
	ErrBulkJobFailed  = errors.New("integration: bulk export job failed")
	ErrBulkJobTimeout = errors.New("integration: bulk export job timed out")

	// Run-level errors
	ErrSyncInProgress = errors.New("integration: a sync run is already in progress")
)

// IsRetryable reports whether an error maps to the platform's transient-error
// contract: throttling and server-side failures may be retried, everything
// else is terminal for that call.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPlatformRateLimited) || errors.Is(err, ErrPlatformUnavailable)
}

// ---------------------------------------------------------------------------
// Bulk export job
// ---------------------------------------------------------------------------

// BulkJobStatus is the lifecycle state of an asynchronous export job, owned
// by the platform and only ever polled here.
type BulkJobStatus string

const (
	BulkJobStatusCreated   BulkJobStatus = "CREATED"
	BulkJobStatusRunning   BulkJobStatus = "RUNNING"
	BulkJobStatusCompleted BulkJobStatus = "COMPLETED"
	BulkJobStatusCanceled  BulkJobStatus = "CANCELED"
	BulkJobStatusFailed    BulkJobStatus = "FAILED"
	BulkJobStatusExpired   BulkJobStatus = "EXPIRED"
)

// IsTerminal returns true once the job can no longer make progress.
func (s BulkJobStatus) IsTerminal() bool {
	switch s {
	case BulkJobStatusCompleted, BulkJobStatusCanceled, BulkJobStatusFailed, BulkJobStatusExpired:
		return true
	default:
		return false
	}
}

// BulkJob is a snapshot of an export job as reported by the platform.
type BulkJob struct {
	ID          string
	Status      BulkJobStatus
	ErrorCode   string
	URL         string
	ObjectCount int64
}

// ---------------------------------------------------------------------------
// CatalogGateway Port Interface
// ---------------------------------------------------------------------------

// CatalogGateway defines the port interface for the remote catalog platform.
// The interface is defined in the domain layer; the concrete HTTP adapter
// lives in the infrastructure layer.
type CatalogGateway interface {
	// -----------------------------------------------------------------------
	// Read operations
	// -----------------------------------------------------------------------

	// GetProductByHandle fetches a single item by handle. Returns
	// ErrProductNotFound when the handle does not exist.
	GetProductByHandle(ctx context.Context, handle string) (*RemoteProduct, error)

	// FindProductBySKU searches for an item whose variants carry the given
	// SKU. Returns ErrProductNotFound when no item matches.
	FindProductBySKU(ctx context.Context, sku string) (*RemoteProduct, error)

	// ListProducts pages through the full catalog via cursor pagination.
	ListProducts(ctx context.Context) ([]RemoteProduct, error)

	// ExportProducts extracts the full catalog through the asynchronous bulk
	// protocol: submit, poll to completion, download, reassemble. The result
	// includes variants, images, and the managed metafields. Job failure or
	// poll timeout is a hard error for the caller's whole run.
	ExportProducts(ctx context.Context) ([]RemoteProduct, error)

	// -----------------------------------------------------------------------
	// Mutation operations
	// -----------------------------------------------------------------------

	// CreateProduct creates a new catalog item and returns the stored form.
	CreateProduct(ctx context.Context, product *RemoteProduct) (*RemoteProduct, error)

	// UpdateProduct replaces the core fields of an existing item.
	UpdateProduct(ctx context.Context, id int64, product *RemoteProduct) (*RemoteProduct, error)

	// DeleteProduct removes an item by its numeric identifier.
	DeleteProduct(ctx context.Context, id int64) error

	// -----------------------------------------------------------------------
	// Inventory operations
	// -----------------------------------------------------------------------

	// ListLocations returns the platform's stock locations.
	ListLocations(ctx context.Context) ([]RemoteLocation, error)

	// PrimaryLocationID resolves and caches the first active location.
	// Returns ErrLocationNotFound when no active location exists.
	PrimaryLocationID(ctx context.Context) (int64, error)

	// EnableInventoryTracking switches an inventory item to platform-managed
	// tracking.
	EnableInventoryTracking(ctx context.Context, inventoryItemID int64) error

	// SetInventoryLevel sets the available quantity of an inventory item at
	// a location.
	SetInventoryLevel(ctx context.Context, locationID, inventoryItemID int64, available int) error

	// -----------------------------------------------------------------------
	// Metafield operations
	// -----------------------------------------------------------------------

	// ListProductMetafields returns all metafields attached to an item.
	ListProductMetafields(ctx context.Context, productID int64) ([]RemoteMetafield, error)

	// CreateProductMetafield attaches a new metafield to an item.
	CreateProductMetafield(ctx context.Context, productID int64, metafield *RemoteMetafield) error

	// UpdateMetafield replaces the value of an existing metafield.
	UpdateMetafield(ctx context.Context, metafieldID int64, metafield *RemoteMetafield) error

	// DeleteMetafield removes a metafield by its identifier.
	DeleteMetafield(ctx context.Context, metafieldID int64) error
}
