package ledgerstate

import "github.com/jtp184/eluent/internal/ledgererr"

// migration is a pure function from one schema version's raw JSON to the
// next's. Each entry in migrations is keyed by the version it upgrades
// FROM, so bumping the schema is one new table entry rather than
// branching logic threaded through Load.
type migration func(raw map[string]any) map[string]any

var migrations = map[int]migration{
	1: migrateV1ToV2,
}

// migrateV1ToV2 replaces the single v1 "last_sync_at" timestamp (which
// did not distinguish a pull from a push) with separate "last_pull_at"
// and "last_push_at" fields, both seeded from the old value since v1
// could not tell them apart.
func migrateV1ToV2(raw map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range raw {
		out[k] = v
	}

	if legacy, ok := out["last_sync_at"]; ok {
		if _, hasPull := out["last_pull_at"]; !hasPull {
			out["last_pull_at"] = legacy
		}
		if _, hasPush := out["last_push_at"]; !hasPush {
			out["last_push_at"] = legacy
		}
		delete(out, "last_sync_at")
	}

	out["schema_version"] = 2
	return out
}

// migrate runs every registered migration from version forward to
// CurrentSchemaVersion in order.
func migrate(raw map[string]any, version int) (map[string]any, error) {
	for version < CurrentSchemaVersion {
		fn, ok := migrations[version]
		if !ok {
			return nil, ledgererr.New(ledgererr.KindStateCorrupt,
				"no migration registered from schema version")
		}
		raw = fn(raw)
		version++
	}
	return raw, nil
}
