// Package retention reclaims live ledger storage by evicting idle sessions.
//
// A session is idle when its most recent audit event is older than the
// configured idle window. Before a session is evicted its full audit trail
// is moved to the archive, so eviction never loses accountability data.
//
// # Basic Usage
//
//	pruner := retention.NewPruner(store, archive, &retention.Config{
//	    IdleAfter: 24 * time.Hour,
//	    Schedule:  "0 3 * * *", // Daily at 3 AM
//	})
//
//	if err := pruner.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer pruner.Stop()
//
// Pruning can also be triggered manually with Prune. If no schedule is
// configured (empty Schedule), Start returns immediately without error and
// only manual pruning runs.
package retention
