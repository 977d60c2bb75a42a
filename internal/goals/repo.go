package goals

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mkelcec/scalewatch/internal/analytics"
	"github.com/mkelcec/scalewatch/internal/store"
	"github.com/mkelcec/scalewatch/internal/telemetry/tracing"
)

var ErrAnnotationNotFound = errors.New("annotation not found")

var _ goalsRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// GetGoal returns the stored goal. A dashboard has at most one goal; when
// none is set, the zero Goal is returned.
func (r *Repo) GetGoal(ctx context.Context) (_ analytics.Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "goalsRepo.getGoal")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var goal analytics.Goal
	err = r.db.QueryRow(
		ctx,
		`SELECT weight, target_date, target_rate FROM scalewatch.goal WHERE id = 1;`,
	).Scan(&goal.Weight, &goal.Date, &goal.TargetRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return analytics.Goal{}, nil
	}
	if err != nil {
		return analytics.Goal{}, err
	}
	return goal, nil
}

func (r *Repo) SetGoal(ctx context.Context, goal analytics.Goal) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "goalsRepo.setGoal")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if goal.Weight == nil && goal.Date == nil && goal.TargetRate == nil {
		return errors.New("goal completely empty")
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO scalewatch.goal (id, weight, target_date, target_rate) VALUES (1, $1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET
				weight = EXCLUDED.weight,
				target_date = EXCLUDED.target_date,
				target_rate = EXCLUDED.target_rate;`,
		goal.Weight, goal.Date, goal.TargetRate,
	)
	return err
}

func (r *Repo) ClearGoal(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "goalsRepo.clearGoal")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = r.db.Exec(ctx, `DELETE FROM scalewatch.goal WHERE id = 1;`)
	return err
}

func (r *Repo) ListAnnotations(ctx context.Context) (_ []store.Annotation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "goalsRepo.listAnnotations")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, day, note FROM scalewatch.annotation ORDER BY day;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var annotations []store.Annotation
	for rows.Next() {
		var a store.Annotation
		if err := rows.Scan(&a.ID, &a.Date, &a.Text); err != nil {
			return nil, err
		}
		annotations = append(annotations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return annotations, nil
}

func (r *Repo) AddAnnotation(ctx context.Context, day time.Time, text string) (_ store.Annotation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "goalsRepo.addAnnotation")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if day.IsZero() || text == "" {
		return store.Annotation{}, errors.New("annotation day or text empty")
	}

	annotation := store.Annotation{
		ID:   uuid.NewString(),
		Date: day,
		Text: text,
	}
	span.SetAttributes(attribute.String("annotation.id", annotation.ID))

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO scalewatch.annotation (id, day, note) VALUES ($1, $2, $3);`,
		annotation.ID, annotation.Date, annotation.Text,
	)
	if err != nil {
		return store.Annotation{}, err
	}
	return annotation, nil
}

func (r *Repo) DeleteAnnotation(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "goalsRepo.deleteAnnotation")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx, `DELETE FROM scalewatch.annotation WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAnnotationNotFound
	}
	return nil
}
