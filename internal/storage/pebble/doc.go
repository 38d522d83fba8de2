// Package pebblestore wraps a Pebble database with the durability policy
// chosen by storage.fsync and a metrics hook feeding runtime stats.
//
// The ledger and the notification log share one DB. Writers stage keys in a
// batch and commit it once:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: filepath.Join(dataDir, "store"),
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	b := db.NewIndexedBatch()
//	defer b.Close()
//	_ = b.Set(ownerKey, []byte("alice"), nil)
//	_ = b.Set(entryKey, record, nil)
//	err = db.CommitBatch(ctx, b)
package pebblestore
