package idempotency

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PostgresStore persists processed order ids in a processed_orders table:
//
//	CREATE TABLE processed_orders (
//	    order_id     TEXT PRIMARY KEY,
//	    processed_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db        *sql.DB // using database/sql
	retention time.Duration
}

func NewPostgresStore(db *sql.DB, retention time.Duration) *PostgresStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &PostgresStore{db: db, retention: retention}
}

func (p *PostgresStore) IsProcessed(ctx context.Context, orderID string) (bool, error) {
	ctx, span := p.startSpan(ctx, "IsProcessed")
	defer span.End()

	var exists bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM processed_orders WHERE order_id=$1 AND processed_at >= $2)`,
		orderID, time.Now().Add(-p.retention)).Scan(&exists)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	return exists, nil
}

func (p *PostgresStore) MarkProcessed(ctx context.Context, orderID string) error {
	ctx, span := p.startSpan(ctx, "MarkProcessed")
	defer span.End()

	now := time.Now()
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO processed_orders (order_id, processed_at) VALUES ($1, $2) ON CONFLICT (order_id) DO UPDATE SET processed_at = EXCLUDED.processed_at`,
		orderID, now)
	if err != nil {
		span.RecordError(err)
		return err
	}

	// retention sweep piggybacks on every write
	_, err = p.db.ExecContext(ctx,
		`DELETE FROM processed_orders WHERE processed_at < $1`,
		now.Add(-p.retention))
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (p *PostgresStore) Close(ctx context.Context) error {
	return p.db.Close()
}

func (p *PostgresStore) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	tracer := otel.Tracer("go-orderflow")
	ctx, span := tracer.Start(ctx, name,
		trace.WithAttributes(attribute.String("db.system", "postgresql")))
	return ctx, span
}
