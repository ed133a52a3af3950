package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/integration"
)

// applyPlan executes a sync plan: creates run in concurrent batches, updates
// and deletes run sequentially. Item failures are collected, never raised.
func (s *Service) applyPlan(ctx context.Context, plan *integration.SyncPlan, batchSize int) []integration.ItemResult {
	results := make([]integration.ItemResult, 0, plan.TotalOperations())

	results = append(results, s.createBatch(ctx, plan.ToCreate, batchSize)...)

	for _, change := range plan.ToUpdate {
		results = append(results, s.updateOne(ctx, change.Handle, change.Desired))
	}

	for i := range plan.ToDelete {
		results = append(results, s.deleteOne(ctx, plan.ToDelete[i]))
	}

	return results
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

// createBatch submits creates in bounded concurrent batches with a pause
// between batches. Within a batch, items settle independently; one failure
// never cancels its siblings. A non-positive batch size falls back to the
// configured default, then to one batch for everything.
func (s *Service) createBatch(ctx context.Context, products []integration.RemoteProduct, batchSize int) []integration.ItemResult {
	if len(products) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = s.cfg.CreateBatchSize
	}
	if batchSize <= 0 {
		batchSize = len(products)
	}

	results := make([]integration.ItemResult, len(products))
	for startIdx := 0; startIdx < len(products); startIdx += batchSize {
		endIdx := startIdx + batchSize
		if endIdx > len(products) {
			endIdx = len(products)
		}

		var g errgroup.Group
		for i := startIdx; i < endIdx; i++ {
			g.Go(func() error {
				results[i] = s.createOne(ctx, &products[i])
				return nil
			})
		}
		// Join barrier: the whole batch settles before the next one starts.
		_ = g.Wait()

		if endIdx < len(products) {
			if err := s.pause(ctx); err != nil {
				for i := endIdx; i < len(products); i++ {
					results[i] = integration.ErrorResult(products[i].Handle, integration.ItemActionCreate, err)
				}
				break
			}
		}
	}
	return results
}

func (s *Service) createOne(ctx context.Context, desired *integration.RemoteProduct) integration.ItemResult {
	created, err := s.gateway.CreateProduct(ctx, desired)
	if err != nil {
		s.logger.Error("Create failed", zap.String("handle", desired.Handle), zap.Error(err))
		return integration.ErrorResult(desired.Handle, integration.ItemActionCreate, err)
	}
	s.logger.Debug("Product created", zap.String("handle", desired.Handle), zap.Int64("remote_id", created.ID))
	return integration.SuccessResult(desired.Handle, integration.ItemActionCreate, created.ID, created.Title)
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

// syncOne updates an existing remote product, or creates it when missing and
// createIfMissing allows.
func (s *Service) syncOne(ctx context.Context, desired integration.RemoteProduct, createIfMissing bool) integration.ItemResult {
	result := s.updateOne(ctx, desired.Handle, desired)
	if result.Status == integration.ItemStatusSkipped {
		if createIfMissing {
			return s.createOne(ctx, &desired)
		}
		result.Message = "product does not exist and create_if_missing is false"
	}
	return result
}

// updateOne resolves the remote product for a handle and applies the desired
// state: the core update first, then the two supplementary passes the update
// call does not cover, inventory level and optional metafields. A handle with
// no resolvable remote product yields a skipped result.
func (s *Service) updateOne(ctx context.Context, handle string, desired integration.RemoteProduct) integration.ItemResult {
	remote, err := s.resolveRemote(ctx, handle)
	if errors.Is(err, integration.ErrProductNotFound) {
		return integration.SkippedResult(handle, integration.ItemActionUpdate, "remote product not found")
	}
	if err != nil {
		s.logger.Error("Update lookup failed", zap.String("handle", handle), zap.Error(err))
		return integration.ErrorResult(handle, integration.ItemActionUpdate, err)
	}

	// Metafields travel separately: the product update call neither deletes
	// emptied fields nor reports which ones it touched.
	payload := desired
	metafields := payload.Metafields
	payload.Metafields = nil

	updated, err := s.gateway.UpdateProduct(ctx, remote.ID, &payload)
	if err != nil {
		s.logger.Error("Update failed", zap.String("handle", handle), zap.Int64("remote_id", remote.ID), zap.Error(err))
		return integration.ErrorResult(handle, integration.ItemActionUpdate, err)
	}

	if err := s.syncInventory(ctx, updated, &desired); err != nil {
		s.logger.Warn("Inventory sync failed", zap.String("handle", handle), zap.Error(err))
		return integration.ErrorResult(handle, integration.ItemActionUpdate, fmt.Errorf("inventory sync: %w", err))
	}
	if err := s.syncMetafields(ctx, remote.ID, metafields); err != nil {
		s.logger.Warn("Metafield sync failed", zap.String("handle", handle), zap.Error(err))
		return integration.ErrorResult(handle, integration.ItemActionUpdate, fmt.Errorf("metafield sync: %w", err))
	}

	s.logger.Debug("Product updated", zap.String("handle", handle), zap.Int64("remote_id", remote.ID))
	return integration.SuccessResult(handle, integration.ItemActionUpdate, remote.ID, updated.Title)
}

// resolveRemote finds the remote product for a handle. Remote handles may
// diverge from ours in casing, and legacy records may only carry the
// identifier in SKU form, so the exact lookup is followed by a lowercase
// variant and a SKU search.
func (s *Service) resolveRemote(ctx context.Context, handle string) (*integration.RemoteProduct, error) {
	remote, err := s.gateway.GetProductByHandle(ctx, handle)
	if err == nil {
		return remote, nil
	}
	if !errors.Is(err, integration.ErrProductNotFound) {
		return nil, err
	}

	if lower := strings.ToLower(handle); lower != handle {
		remote, err = s.gateway.GetProductByHandle(ctx, lower)
		if err == nil {
			return remote, nil
		}
		if !errors.Is(err, integration.ErrProductNotFound) {
			return nil, err
		}
	}

	return s.gateway.FindProductBySKU(ctx, catalog.ProductIDFromHandle(handle))
}

// syncInventory aligns the tracked stock level of a single-variant product.
// Multi-variant warranty products are untracked and left alone.
func (s *Service) syncInventory(ctx context.Context, updated, desired *integration.RemoteProduct) error {
	if len(desired.Variants) != 1 || len(updated.Variants) == 0 {
		return nil
	}
	variant := updated.Variants[0]
	if variant.InventoryItemID == 0 {
		s.logger.Warn("Variant has no inventory item, skipping inventory sync",
			zap.String("handle", updated.Handle), zap.Int64("variant_id", variant.ID))
		return nil
	}

	locationID, err := s.gateway.PrimaryLocationID(ctx)
	if err != nil {
		return err
	}

	if !variant.IsTracked() {
		if err := s.gateway.EnableInventoryTracking(ctx, variant.InventoryItemID); err != nil {
			return err
		}
	}

	return s.gateway.SetInventoryLevel(ctx, locationID, variant.InventoryItemID, desired.Variants[0].InventoryQuantity)
}

// syncMetafields reconciles the managed metafields of a product: empty
// desired values delete the remote metafield if present, non-empty values
// update in place or create.
func (s *Service) syncMetafields(ctx context.Context, productID int64, desired []integration.RemoteMetafield) error {
	if len(desired) == 0 {
		return nil
	}

	existing, err := s.gateway.ListProductMetafields(ctx, productID)
	if err != nil {
		return fmt.Errorf("list metafields: %w", err)
	}
	byKey := make(map[string]integration.RemoteMetafield, len(existing))
	for _, m := range existing {
		if m.Namespace == integration.MetafieldNamespace {
			byKey[m.Key] = m
		}
	}

	for i := range desired {
		d := desired[i]
		current, exists := byKey[d.Key]

		if d.IsEmpty() {
			if exists {
				if err := s.gateway.DeleteMetafield(ctx, current.ID); err != nil {
					return fmt.Errorf("delete metafield %s: %w", d.Key, err)
				}
			}
			continue
		}

		if exists {
			if err := s.gateway.UpdateMetafield(ctx, current.ID, &d); err != nil {
				return fmt.Errorf("update metafield %s: %w", d.Key, err)
			}
		} else {
			if err := s.gateway.CreateProductMetafield(ctx, productID, &d); err != nil {
				return fmt.Errorf("create metafield %s: %w", d.Key, err)
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func (s *Service) deleteOne(ctx context.Context, item integration.RemoteProduct) integration.ItemResult {
	if item.ID == 0 {
		return integration.SkippedResult(item.Handle, integration.ItemActionDelete, "missing remote id")
	}
	if err := s.gateway.DeleteProduct(ctx, item.ID); err != nil {
		s.logger.Error("Delete failed", zap.String("handle", item.Handle), zap.Int64("remote_id", item.ID), zap.Error(err))
		return integration.ErrorResult(item.Handle, integration.ItemActionDelete, err)
	}
	return integration.SuccessResult(item.Handle, integration.ItemActionDelete, item.ID, item.Title)
}

// pause waits the configured inter-batch delay, cut short by cancellation.
func (s *Service) pause(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cfg.BatchPause):
		return nil
	}
}
