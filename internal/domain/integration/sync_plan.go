package integration

// ---------------------------------------------------------------------------
// Reconciliation plan
// ---------------------------------------------------------------------------

// ProductChange pairs the desired and actual form of one differing item.
type ProductChange struct {
	Handle  string
	Desired RemoteProduct
	Actual  RemoteProduct
}

// SyncPlan is the outcome of diffing the desired index against the actual
// index, keyed by handle. The three sets are disjoint; every desired handle
// lands in exactly one of create, update, or unchanged.
type SyncPlan struct {
	ToCreate  []RemoteProduct `json:"to_create"`
	ToUpdate  []ProductChange `json:"to_update"`
	ToDelete  []RemoteProduct `json:"to_delete"`
	Unchanged []string        `json:"unchanged"`
}

// TotalOperations returns the number of mutations the plan will issue.
func (p *SyncPlan) TotalOperations() int {
	return len(p.ToCreate) + len(p.ToUpdate) + len(p.ToDelete)
}

// IsEmpty reports whether applying the plan would be a no-op.
func (p *SyncPlan) IsEmpty() bool {
	return p.TotalOperations() == 0
}

// ---------------------------------------------------------------------------
// Per-item results
// ---------------------------------------------------------------------------

// ItemStatus is the outcome class of one mutation.
type ItemStatus string

const (
	ItemStatusSuccess ItemStatus = "success"
	ItemStatusSkipped ItemStatus = "skipped"
	ItemStatusError   ItemStatus = "error"
)

// ItemAction names the operation attempted on one item.
type ItemAction string

const (
	ItemActionCreate ItemAction = "create"
	ItemActionUpdate ItemAction = "update"
	ItemActionDelete ItemAction = "delete"
	ItemActionNone   ItemAction = "none"
)

// ItemResult is the structured outcome of one mutation. Partial failures are
// collected into result lists, never raised as a batch-wide error.
type ItemResult struct {
	Handle     string     `json:"handle"`
	Action     ItemAction `json:"action"`
	Status     ItemStatus `json:"status"`
	RemoteID   int64      `json:"remote_id,omitempty"`
	Title      string     `json:"title,omitempty"`
	Message    string     `json:"message,omitempty"`
	StatusCode int        `json:"status_code,omitempty"`
}

// SuccessResult builds a success outcome for an item.
func SuccessResult(handle string, action ItemAction, remoteID int64, title string) ItemResult {
	return ItemResult{
		Handle:   handle,
		Action:   action,
		Status:   ItemStatusSuccess,
		RemoteID: remoteID,
		Title:    title,
	}
}

// SkippedResult builds a skipped outcome, e.g. a lookup miss.
func SkippedResult(handle string, action ItemAction, message string) ItemResult {
	return ItemResult{
		Handle:  handle,
		Action:  action,
		Status:  ItemStatusSkipped,
		Message: message,
	}
}

// ErrorResult builds a failure outcome carrying the error text.
func ErrorResult(handle string, action ItemAction, err error) ItemResult {
	res := ItemResult{
		Handle: handle,
		Action: action,
		Status: ItemStatusError,
	}
	if err != nil {
		res.Message = err.Error()
	}
	return res
}

// CountByStatus tallies results per status class.
func CountByStatus(results []ItemResult) (success, skipped, failed int) {
	for _, r := range results {
		switch r.Status {
		case ItemStatusSuccess:
			success++
		case ItemStatusSkipped:
			skipped++
		case ItemStatusError:
			failed++
		}
	}
	return success, skipped, failed
}
