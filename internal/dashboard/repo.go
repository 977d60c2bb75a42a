package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mkelcec/scalewatch/internal/analytics"
	"github.com/mkelcec/scalewatch/internal/telemetry/tracing"
)

var ErrEntryNotFound = errors.New("entry not found")

var _ dashboardRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// UpsertWeight stores the weight measurement for a calendar day. A second
// measurement on the same day replaces the first.
func (r *Repo) UpsertWeight(ctx context.Context, day time.Time, weight float64) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "dashboardRepo.upsertWeight")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	span.SetAttributes(attribute.String("entry.day", day.Format(time.DateOnly)))

	if day.IsZero() {
		return errors.New("entry day empty")
	}
	if weight <= 0 {
		return fmt.Errorf("invalid weight value: %f", weight)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO scalewatch.weight_entry (day, weight) VALUES ($1, $2)
			ON CONFLICT (day) DO UPDATE SET weight = EXCLUDED.weight;`,
		day, weight,
	)
	return err
}

func (r *Repo) DeleteWeight(ctx context.Context, day time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "dashboardRepo.deleteWeight")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM scalewatch.weight_entry WHERE day = $1;`,
		day,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// UpsertCalories stores intake and expenditure for a calendar day. Either
// value may be nil, meaning not tracked that day.
func (r *Repo) UpsertCalories(ctx context.Context, day time.Time, intake, expenditure *float64) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "dashboardRepo.upsertCalories")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	span.SetAttributes(attribute.String("entry.day", day.Format(time.DateOnly)))

	if day.IsZero() {
		return errors.New("entry day empty")
	}
	if intake == nil && expenditure == nil {
		return errors.New("intake and expenditure both empty")
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO scalewatch.calorie_entry (day, intake, expenditure) VALUES ($1, $2, $3)
			ON CONFLICT (day) DO UPDATE SET intake = EXCLUDED.intake, expenditure = EXCLUDED.expenditure;`,
		day, intake, expenditure,
	)
	return err
}

func (r *Repo) DeleteCalories(ctx context.Context, day time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "dashboardRepo.deleteCalories")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM scalewatch.calorie_entry WHERE day = $1;`,
		day,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// ListRecords returns one record per day that has any measurement, weight
// and calorie entries merged, ordered by day. Nil bounds mean unbounded.
func (r *Repo) ListRecords(ctx context.Context, from, to *time.Time) (_ []analytics.DailyRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "dashboardRepo.listRecords")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	query := `
		SELECT
			COALESCE(w.day, c.day) AS day, w.weight, c.intake, c.expenditure
		FROM scalewatch.weight_entry w
		FULL OUTER JOIN scalewatch.calorie_entry c ON w.day = c.day`
	var args []any
	switch {
	case from != nil && to != nil:
		query += ` WHERE COALESCE(w.day, c.day) BETWEEN $1 AND $2`
		args = append(args, *from, *to)
	case from != nil:
		query += ` WHERE COALESCE(w.day, c.day) >= $1`
		args = append(args, *from)
	case to != nil:
		query += ` WHERE COALESCE(w.day, c.day) <= $1`
		args = append(args, *to)
	}
	query += ` ORDER BY COALESCE(w.day, c.day);`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := recordsFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("scan daily records: %w", err)
	}
	return records, nil
}

func recordsFromRows(rows pgx.Rows) ([]analytics.DailyRecord, error) {
	var records []analytics.DailyRecord
	for rows.Next() {
		var record analytics.DailyRecord
		if err := rows.Scan(
			&record.Date,
			&record.Weight,
			&record.CalorieIntake,
			&record.Expenditure,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
