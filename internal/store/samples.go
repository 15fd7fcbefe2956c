package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrOutOfOrderSample is returned when a sample is older than the protocol's
// stored head. Duplicate timestamps are a silent no-op instead, so a retried
// cycle never fails on its own write.
var ErrOutOfOrderSample = errors.New("sample timestamp older than latest stored sample")

// Sample is one stored observation of a protocol's health metrics.
// Utilization is null for vault protocols.
type Sample struct {
	ProtocolName string              `json:"protocol_name"`
	Timestamp    time.Time           `json:"timestamp"`
	TVL          decimal.Decimal     `json:"tvl"`
	APY          decimal.Decimal     `json:"apy"`
	Utilization  decimal.NullDecimal `json:"utilization"`
}

// AppendSample stores a sample if its timestamp is strictly newer than the
// protocol's latest one. Re-inserting the same timestamp succeeds without
// writing; anything older is refused with ErrOutOfOrderSample.
func (s *Store) AppendSample(ctx context.Context, smp Sample) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO protocol_samples (protocol_name, ts, tvl, apy, utilization)
		SELECT $1, $2, $3, $4, $5
		WHERE NOT EXISTS (
			SELECT 1 FROM protocol_samples WHERE protocol_name = $1 AND ts >= $2
		)
		ON CONFLICT (protocol_name, ts) DO NOTHING`,
		smp.ProtocolName, smp.Timestamp, smp.TVL, smp.APY, smp.Utilization)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var dup bool
	err = s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM protocol_samples WHERE protocol_name = $1 AND ts = $2
		)`, smp.ProtocolName, smp.Timestamp).Scan(&dup)
	if err != nil {
		return err
	}
	if dup {
		return nil
	}
	return ErrOutOfOrderSample
}

// LatestSample returns the most recent sample for a protocol, or nil when the
// protocol has no data yet.
func (s *Store) LatestSample(ctx context.Context, protocol string) (*Sample, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT protocol_name, ts, tvl, apy, utilization
		FROM protocol_samples
		WHERE protocol_name = $1
		ORDER BY ts DESC
		LIMIT 1`, protocol)
	return scanSample(row)
}

// SampleAsOf returns the most recent sample with timestamp <= cutoff, used for
// windowed comparisons. nil means no sample is old enough; callers must treat
// that as "baseline unavailable", never as zero.
func (s *Store) SampleAsOf(ctx context.Context, protocol string, cutoff time.Time) (*Sample, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT protocol_name, ts, tvl, apy, utilization
		FROM protocol_samples
		WHERE protocol_name = $1 AND ts <= $2
		ORDER BY ts DESC
		LIMIT 1`, protocol, cutoff)
	return scanSample(row)
}

// SampleHistory returns samples for a protocol since the given time, oldest first.
func (s *Store) SampleHistory(ctx context.Context, protocol string, since time.Time) ([]Sample, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT protocol_name, ts, tvl, apy, utilization
		FROM protocol_samples
		WHERE protocol_name = $1 AND ts >= $2
		ORDER BY ts ASC`, protocol, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var smp Sample
		if err := rows.Scan(&smp.ProtocolName, &smp.Timestamp, &smp.TVL, &smp.APY, &smp.Utilization); err != nil {
			return nil, err
		}
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}

// CountMonitoredProtocols returns how many distinct protocols have stored samples.
func (s *Store) CountMonitoredProtocols(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT protocol_name) FROM protocol_samples`).Scan(&count)
	return count, err
}

func scanSample(row pgx.Row) (*Sample, error) {
	var smp Sample
	err := row.Scan(&smp.ProtocolName, &smp.Timestamp, &smp.TVL, &smp.APY, &smp.Utilization)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &smp, nil
}
