package sync

import (
	"github.com/shopsync/backend/internal/domain/integration"
)

// SyncOptions tunes a sync operation. The zero value runs a real sync with
// the service defaults.
type SyncOptions struct {
	// DryRun computes the plan without applying any mutation.
	DryRun bool

	// CreateIfMissing lets the by-ids sync create products that do not exist
	// remotely instead of skipping them.
	CreateIfMissing bool

	// DeleteOrphans lets the full sync delete remote products with no source
	// row. Orphans are always reported in the plan; removal is opt-in.
	DeleteOrphans bool

	// BatchSize overrides the configured create batch size when positive.
	BatchSize int
}

// PlanSummary is the reportable shape of a sync plan: handles only, since
// full payloads carry encoded image data.
type PlanSummary struct {
	ToCreate  []string `json:"to_create"`
	ToUpdate  []string `json:"to_update"`
	ToDelete  []string `json:"to_delete"`
	Unchanged int      `json:"unchanged"`
}

// SummarizePlan reduces a plan to its handle lists.
func SummarizePlan(plan *integration.SyncPlan) *PlanSummary {
	summary := &PlanSummary{
		ToCreate:  make([]string, 0, len(plan.ToCreate)),
		ToUpdate:  make([]string, 0, len(plan.ToUpdate)),
		ToDelete:  make([]string, 0, len(plan.ToDelete)),
		Unchanged: len(plan.Unchanged),
	}
	for _, p := range plan.ToCreate {
		summary.ToCreate = append(summary.ToCreate, p.Handle)
	}
	for _, c := range plan.ToUpdate {
		summary.ToUpdate = append(summary.ToUpdate, c.Handle)
	}
	for _, p := range plan.ToDelete {
		summary.ToDelete = append(summary.ToDelete, p.Handle)
	}
	return summary
}

// RunReport is the outcome of one sync operation.
type RunReport struct {
	RunID         string                   `json:"run_id,omitempty"`
	Status        string                   `json:"status"`
	Message       string                   `json:"message"`
	TotalProducts int                      `json:"total_products"`
	Created       int                      `json:"created"`
	Updated       int                      `json:"updated"`
	Deleted       int                      `json:"deleted"`
	Skipped       int                      `json:"skipped"`
	Failed        int                      `json:"failed"`
	ExecutionTime float64                  `json:"execution_time"`
	Missing       []string                 `json:"missing_from_db,omitempty"`
	Plan          *PlanSummary             `json:"plan,omitempty"`
	Results       []integration.ItemResult `json:"results,omitempty"`
}
