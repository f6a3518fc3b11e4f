package db

import (
	"context"
	"errors"

	"github.com/dominichul/phonefactor/internal/delivery/entity"
	"github.com/dominichul/phonefactor/internal/pkg/goerror"
	"github.com/dominichul/phonefactor/internal/pkg/instrument"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{
		conn: conn,
		ins:  ins,
	}
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("delivery.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *DB) CreateReceipt(ctx context.Context, receipt entity.Receipt) (err error) {
	ctx, span := s.startSpan(ctx, "CreateReceipt")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO delivery_receipts (id, device_id, user_id, method, number, driver, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		receipt.ID, receipt.DeviceID, receipt.UserID, receipt.Method,
		receipt.Number, receipt.Driver, receipt.Status, receipt.Metadata)

	err = s.mapError(err)
	return err
}

func (s *DB) GetReceiptPage(ctx context.Context, afterID int64, size int32) (receipts []entity.Receipt, err error) {
	ctx, span := s.startSpan(ctx, "GetReceiptPage")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT id, device_id, user_id, method, number, driver, status, metadata, created_at
		FROM delivery_receipts
		WHERE id > $1
		ORDER BY id
		LIMIT $2`,
		afterID, size)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var r entity.Receipt
		err = rows.Scan(&r.ID, &r.DeviceID, &r.UserID, &r.Method, &r.Number, &r.Driver, &r.Status, &r.Metadata, &r.CreatedAt)
		if err != nil {
			return nil, s.mapError(err)
		}
		receipts = append(receipts, r)
	}

	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return receipts, nil
}
