package sync

import (
	"github.com/shopsync/backend/internal/domain/integration"
)

// BuildPlan computes the create/update/delete plan between the desired
// catalog state and the actual remote state, both keyed by handle. Items
// without a handle cannot be joined and are ignored. Duplicate handles keep
// the first occurrence. The plan is deterministic: creates, updates and
// unchanged handles follow desired order, deletes follow actual order.
func BuildPlan(desired, actual []integration.RemoteProduct) integration.SyncPlan {
	desiredByHandle := make(map[string]integration.RemoteProduct, len(desired))
	desiredOrder := make([]string, 0, len(desired))
	for _, d := range desired {
		if d.Handle == "" {
			continue
		}
		if _, dup := desiredByHandle[d.Handle]; dup {
			continue
		}
		desiredByHandle[d.Handle] = d
		desiredOrder = append(desiredOrder, d.Handle)
	}

	actualByHandle := make(map[string]integration.RemoteProduct, len(actual))
	actualOrder := make([]string, 0, len(actual))
	for _, a := range actual {
		if a.Handle == "" {
			continue
		}
		if _, dup := actualByHandle[a.Handle]; dup {
			continue
		}
		actualByHandle[a.Handle] = a
		actualOrder = append(actualOrder, a.Handle)
	}

	var plan integration.SyncPlan
	for _, handle := range desiredOrder {
		d := desiredByHandle[handle]
		a, exists := actualByHandle[handle]
		if !exists {
			plan.ToCreate = append(plan.ToCreate, d)
			continue
		}
		if Normalize(d).Equal(Normalize(a)) {
			plan.Unchanged = append(plan.Unchanged, handle)
			continue
		}
		plan.ToUpdate = append(plan.ToUpdate, integration.ProductChange{
			Handle:  handle,
			Desired: d,
			Actual:  a,
		})
	}

	for _, handle := range actualOrder {
		if _, exists := desiredByHandle[handle]; !exists {
			plan.ToDelete = append(plan.ToDelete, actualByHandle[handle])
		}
	}

	return plan
}
