package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the renderrelay store (SQLite).
var Migrations = migrate.NewGroup("renderrelay")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_renderrelay_subscriptions",
			Version: "20250115000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS renderrelay_subscriptions (
    id          TEXT PRIMARY KEY,
    event_type  TEXT NOT NULL,
    target_url  TEXT NOT NULL,
    remote_id   TEXT NOT NULL,
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_renderrelay_subscriptions_pair ON renderrelay_subscriptions (event_type, target_url);
CREATE INDEX IF NOT EXISTS idx_renderrelay_subscriptions_remote ON renderrelay_subscriptions (remote_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS renderrelay_subscriptions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_renderrelay_recent_deliveries",
			Version: "20250115000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS renderrelay_recent_deliveries (
    id          TEXT PRIMARY KEY,
    event_type  TEXT NOT NULL,
    payload     BLOB NOT NULL,
    received_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_renderrelay_recent_type ON renderrelay_recent_deliveries (event_type, received_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS renderrelay_recent_deliveries`)
				return err
			},
		},
	)
}
