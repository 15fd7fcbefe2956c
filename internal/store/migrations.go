package store

import "context"

const migrationSQL = `
CREATE TABLE IF NOT EXISTS protocol_samples (
    id BIGSERIAL PRIMARY KEY,
    protocol_name TEXT NOT NULL,
    ts TIMESTAMPTZ NOT NULL,
    tvl NUMERIC(24, 2) NOT NULL,
    apy NUMERIC(10, 4) NOT NULL,
    utilization NUMERIC(7, 6),
    UNIQUE (protocol_name, ts)
);

CREATE INDEX IF NOT EXISTS idx_samples_protocol_ts
    ON protocol_samples (protocol_name, ts DESC);

CREATE TABLE IF NOT EXISTS protocol_alerts (
    id UUID PRIMARY KEY,
    protocol_name TEXT NOT NULL,
    rule_id TEXT NOT NULL,
    severity TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    observed NUMERIC(24, 6),
    threshold NUMERIC(24, 6),
    status TEXT NOT NULL DEFAULT 'open',
    opened_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    resolved_at TIMESTAMPTZ
);

-- At most one open alert per (protocol, rule). Concurrent reconcilers hit the
-- index instead of racing on a lookup.
CREATE UNIQUE INDEX IF NOT EXISTS uq_alerts_open
    ON protocol_alerts (protocol_name, rule_id)
    WHERE status = 'open';

CREATE INDEX IF NOT EXISTS idx_alerts_protocol
    ON protocol_alerts (protocol_name, opened_at DESC);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, migrationSQL)
	return err
}
