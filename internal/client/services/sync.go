package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/avolkovs/pennywise/internal/client/models"
	"github.com/avolkovs/pennywise/internal/common"
)

const (
	lastSyncTimeKey = "last_sync_time"
	syncCycleKey    = "sync_cycle"

	// fullPullEvery is how often a cycle lists the complete remote set and
	// runs tombstone cleanup instead of an incremental changed-since pull.
	// Deterministic on purpose: a counter in the metadata table, not a coin
	// flip, so behavior is reproducible in tests.
	fullPullEvery = 5
)

// ReachabilityChecker gates a sync cycle on the remote being reachable.
type ReachabilityChecker interface {
	CheckReachable(ctx context.Context) bool
}

// SyncResult summarizes one synchronization cycle.
//
// Success reflects whether the cycle ran without a fatal error (unreachable
// remote, local storage failure, failed pull listing). Per-record push/pull
// failures are collected in Errors and leave the affected rows in their
// pre-sync status for the next cycle; they do not flip Success.
type SyncResult struct {
	Success bool
	Pushed  int
	Pulled  int
	Errors  []string
}

func (r *SyncResult) recordError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Sync runs one push-then-pull reconciliation cycle against the remote
// record service. It is not re-entrant; the orchestrator serializes calls.
// Each record's push or pull is its own commit point, so an interrupted
// cycle resumes safely on the next run.
func (s *expenseService) Sync(ctx context.Context) *SyncResult {
	res := &SyncResult{}

	if s.checker == nil || !s.checker.CheckReachable(ctx) {
		res.recordError("server unreachable")
		return res
	}

	if err := s.pushPending(ctx, res); err != nil {
		res.recordError("push failed: %v", err)
		return res
	}
	if err := s.pushDeleted(ctx, res); err != nil {
		res.recordError("push deletes failed: %v", err)
		return res
	}
	if err := s.pull(ctx, res); err != nil {
		res.recordError("pull failed: %v", err)
		return res
	}
	if err := s.pullSubcategories(ctx); err != nil {
		res.recordError("reference data sync failed: %v", err)
		return res
	}

	if err := s.metaRepo.Set(ctx, lastSyncTimeKey,
		[]byte(strconv.FormatInt(s.now().UnixMilli(), 10))); err != nil {
		res.recordError("failed to store sync time: %v", err)
		return res
	}

	res.Success = true
	s.logger.Info(ctx, "sync completed",
		"pushed", res.Pushed, "pulled", res.Pulled, "errors", len(res.Errors))
	return res
}

// pushPending sends every pending row to the remote: create when no remote
// counterpart exists, full update otherwise. A per-record failure leaves the
// row pending and moves on.
func (s *expenseService) pushPending(ctx context.Context, res *SyncResult) error {
	pending, err := s.expenseRepo.GetByStatus(ctx, models.StatusPending)
	if err != nil {
		return err
	}

	for _, e := range pending {
		remote, err := s.client.GetExpense(ctx, e.ID)
		exists := err == nil && remote != nil
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			res.recordError("push %s: lookup: %v", e.ID, err)
			continue
		}

		if exists {
			err = s.client.UpdateExpense(ctx, e)
		} else {
			err = s.client.CreateExpense(ctx, e)
		}
		if err != nil {
			res.recordError("push %s: %v", e.ID, err)
			continue
		}

		e.Status = models.StatusSynced
		e.HasRemote = true
		if err := s.expenseRepo.Upsert(ctx, e); err != nil {
			return err
		}
		res.Pushed++
	}
	return nil
}

// pushDeleted confirms tombstones on the remote, then erases the local rows.
func (s *expenseService) pushDeleted(ctx context.Context, res *SyncResult) error {
	deleted, err := s.expenseRepo.GetByStatus(ctx, models.StatusDeleted)
	if err != nil {
		return err
	}

	for _, e := range deleted {
		if err := s.client.DeleteExpense(ctx, e.ID); err != nil {
			res.recordError("delete %s: %v", e.ID, err)
			continue
		}
		if err := s.expenseRepo.DeleteByID(ctx, e.ID); err != nil {
			return err
		}
		res.Pushed++
	}
	return nil
}

// pull fetches remote records (incrementally when possible) and applies them
// locally. Rows holding unsynced local intent are never overwritten; the
// remote wins only over an untouched synced copy.
func (s *expenseService) pull(ctx context.Context, res *SyncResult) error {
	lastSync, err := s.lastSyncTime(ctx)
	if err != nil {
		return err
	}
	cycle, err := s.nextCycle(ctx)
	if err != nil {
		return err
	}
	full := lastSync == 0 || cycle%fullPullEvery == 0

	var remoteList []models.Expense
	if full {
		remoteList, err = s.client.ListExpenses(ctx)
	} else {
		remoteList, err = s.client.ListExpensesSince(ctx, lastSync)
	}
	if err != nil {
		return err
	}

	for i := range remoteList {
		remote := &remoteList[i]

		local, err := s.expenseRepo.GetByID(ctx, remote.ID)
		if errors.Is(err, common.ErrNotFound) {
			remote.Status = models.StatusSynced
			remote.HasRemote = true
			remote.UpdatedAt = s.now().UnixMilli()
			if err := s.expenseRepo.Upsert(ctx, remote); err != nil {
				return err
			}
			res.Pulled++
			continue
		}
		if err != nil {
			return err
		}

		// Pending and deleted rows keep their local intent until the next
		// push cycle resolves it.
		if local.Status != models.StatusSynced {
			continue
		}
		if local.PayloadEquals(remote) {
			continue
		}

		remote.Status = models.StatusSynced
		remote.HasRemote = true
		remote.UpdatedAt = s.now().UnixMilli()
		if err := s.expenseRepo.Upsert(ctx, remote); err != nil {
			return err
		}
		res.Pulled++
	}

	if full {
		if err := s.cleanupTombstones(ctx, remoteList); err != nil {
			return err
		}
	}
	return nil
}

// cleanupTombstones removes local synced rows whose id is absent from the
// full remote listing: deletions made by another client.
func (s *expenseService) cleanupTombstones(ctx context.Context, remoteList []models.Expense) error {
	remoteIDs := make(map[string]struct{}, len(remoteList))
	for i := range remoteList {
		remoteIDs[remoteList[i].ID] = struct{}{}
	}

	synced, err := s.expenseRepo.GetByStatus(ctx, models.StatusSynced)
	if err != nil {
		return err
	}
	for _, e := range synced {
		if _, ok := remoteIDs[e.ID]; ok {
			continue
		}
		if err := s.expenseRepo.DeleteByID(ctx, e.ID); err != nil {
			return err
		}
		s.logger.Info(ctx, "removed remotely deleted expense", "id", e.ID)
	}
	return nil
}

// pullSubcategories replaces the local reference-data cache with the remote
// copy wholesale.
func (s *expenseService) pullSubcategories(ctx context.Context) error {
	subs, err := s.client.ListSubcategories(ctx)
	if err != nil {
		return err
	}
	return s.subcatRepo.ReplaceAll(ctx, subs)
}

func (s *expenseService) lastSyncTime(ctx context.Context) (int64, error) {
	raw, err := s.metaRepo.Get(ctx, lastSyncTimeKey)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s value: %w", lastSyncTimeKey, err)
	}
	return v, nil
}

// nextCycle increments and persists the cycle counter driving the
// deterministic full-pull schedule.
func (s *expenseService) nextCycle(ctx context.Context) (int64, error) {
	raw, err := s.metaRepo.Get(ctx, syncCycleKey)
	if err != nil {
		return 0, err
	}
	var cycle int64
	if raw != nil {
		cycle, err = strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad %s value: %w", syncCycleKey, err)
		}
	}
	cycle++
	if err := s.metaRepo.Set(ctx, syncCycleKey, []byte(strconv.FormatInt(cycle, 10))); err != nil {
		return 0, err
	}
	return cycle, nil
}
