package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/port"
)

// CampaignStore implements port.CampaignStore on PostgreSQL.
type CampaignStore struct {
	pool *pgxpool.Pool
}

var _ port.CampaignStore = (*CampaignStore)(nil)

func NewCampaignStore(pool *pgxpool.Pool) *CampaignStore {
	return &CampaignStore{pool: pool}
}

// InTx implements port.CampaignStore. The transaction is rolled back when fn
// fails or panics and committed otherwise.
func (s *CampaignStore) InTx(ctx context.Context, fn func(ctx context.Context, tx port.CampaignTx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if err = tx.Commit(ctx); err != nil {
			err = fmt.Errorf("commit tx: %w", err)
		}
	}()
	return fn(ctx, &campaignTx{tx: tx})
}

type campaignTx struct {
	tx pgx.Tx
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf(format+": %w", append(args, port.ErrNotFound)...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

const campaignColumns = `id, idempotency_key, name, start_date, end_date, mailing_frequency_weeks,
       mailing_drop_weeks, status, targeting, created_at, updated_at`

func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	var (
		c         domain.Campaign
		targeting []byte
	)
	err := row.Scan(
		&c.ID,
		&c.IdempotencyKey,
		&c.Name,
		&c.StartDate,
		&c.EndDate,
		&c.MailingFrequencyWeeks,
		&c.MailingDropWeeks,
		&c.Status,
		&targeting,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(targeting, &c.Targeting); err != nil {
		return nil, fmt.Errorf("decode targeting of campaign %d: %w", c.ID, err)
	}
	c.StartDate, c.EndDate = c.StartDate.UTC(), c.EndDate.UTC()
	c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
	return &c, nil
}

func (t *campaignTx) LockCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	c, err := scanCampaign(t.tx.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "lock campaign %d", id)
	}
	return c, nil
}

func (t *campaignTx) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	c, err := scanCampaign(t.tx.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "get campaign %d", id)
	}
	return c, nil
}

func (t *campaignTx) CreateCampaign(ctx context.Context, c *domain.Campaign) error {
	targeting, err := json.Marshal(c.Targeting)
	if err != nil {
		return fmt.Errorf("encode targeting: %w", err)
	}
	err = t.tx.QueryRow(ctx, `
        INSERT INTO campaigns
            (idempotency_key, name, start_date, end_date, mailing_frequency_weeks,
             mailing_drop_weeks, status, targeting)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`,
		c.IdempotencyKey, c.Name, c.StartDate, c.EndDate, c.MailingFrequencyWeeks,
		c.MailingDropWeeks, c.Status, targeting,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (t *campaignTx) UpdateCampaign(ctx context.Context, c *domain.Campaign) error {
	targeting, err := json.Marshal(c.Targeting)
	if err != nil {
		return fmt.Errorf("encode targeting: %w", err)
	}
	err = t.tx.QueryRow(ctx, `
        UPDATE campaigns
           SET name = $2, start_date = $3, end_date = $4, mailing_frequency_weeks = $5,
               mailing_drop_weeks = $6, status = $7, targeting = $8, updated_at = now()
         WHERE id = $1
     RETURNING updated_at`,
		c.ID, c.Name, c.StartDate, c.EndDate, c.MailingFrequencyWeeks,
		c.MailingDropWeeks, c.Status, targeting,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return notFound(err, "update campaign %d", c.ID)
	}
	return nil
}

func (t *campaignTx) ListCampaignIDs(ctx context.Context, status domain.CampaignStatus) ([]int64, error) {
	rows, err := t.tx.Query(ctx, `SELECT id FROM campaigns WHERE status = $1 ORDER BY id`, status)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

const iterationColumns = `id, campaign_id, iteration_number, start_date, end_date, status,
       resume_status, materialized_at, created_at, updated_at`

func scanIteration(row pgx.CollectableRow) (domain.Iteration, error) {
	var it domain.Iteration
	err := row.Scan(
		&it.ID,
		&it.CampaignID,
		&it.IterationNumber,
		&it.StartDate,
		&it.EndDate,
		&it.Status,
		&it.ResumeStatus,
		&it.MaterializedAt,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	it.StartDate, it.EndDate = it.StartDate.UTC(), it.EndDate.UTC()
	if it.MaterializedAt != nil {
		m := it.MaterializedAt.UTC()
		it.MaterializedAt = &m
	}
	return it, err
}

func (t *campaignTx) CreateIteration(ctx context.Context, it *domain.Iteration) error {
	err := t.tx.QueryRow(ctx, `
        INSERT INTO campaign_iterations
            (campaign_id, iteration_number, start_date, end_date, status, resume_status, materialized_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`,
		it.CampaignID, it.IterationNumber, it.StartDate, it.EndDate, it.Status, it.ResumeStatus, it.MaterializedAt,
	).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert iteration: %w", err)
	}
	return nil
}

func (t *campaignTx) UpdateIteration(ctx context.Context, it *domain.Iteration) error {
	err := t.tx.QueryRow(ctx, `
        UPDATE campaign_iterations
           SET start_date = $2, end_date = $3, status = $4, resume_status = $5,
               materialized_at = $6, updated_at = now()
         WHERE id = $1
     RETURNING updated_at`,
		it.ID, it.StartDate, it.EndDate, it.Status, it.ResumeStatus, it.MaterializedAt,
	).Scan(&it.UpdatedAt)
	if err != nil {
		return notFound(err, "update iteration %d", it.ID)
	}
	return nil
}

func (t *campaignTx) ListIterations(ctx context.Context, campaignID int64) ([]domain.Iteration, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+iterationColumns+`
        FROM campaign_iterations WHERE campaign_id = $1 ORDER BY iteration_number`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list iterations: %w", err)
	}
	return pgx.CollectRows(rows, scanIteration)
}

func (t *campaignTx) CreateWeek(ctx context.Context, w *domain.IterationWeek) error {
	err := t.tx.QueryRow(ctx, `
        INSERT INTO iteration_weeks (iteration_id, week_number, start_date, end_date, is_mailing_drop_week)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`,
		w.IterationID, w.WeekNumber, w.StartDate, w.EndDate, w.IsMailingDropWeek,
	).Scan(&w.ID)
	if err != nil {
		return fmt.Errorf("insert week: %w", err)
	}
	return nil
}

func (t *campaignTx) UpdateWeek(ctx context.Context, w *domain.IterationWeek) error {
	tag, err := t.tx.Exec(ctx, `
        UPDATE iteration_weeks
           SET week_number = $2, start_date = $3, end_date = $4, is_mailing_drop_week = $5
         WHERE id = $1`,
		w.ID, w.WeekNumber, w.StartDate, w.EndDate, w.IsMailingDropWeek,
	)
	if err != nil {
		return fmt.Errorf("update week %d: %w", w.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update week %d: %w", w.ID, port.ErrNotFound)
	}
	return nil
}

func scanWeek(row pgx.CollectableRow) (domain.IterationWeek, error) {
	var w domain.IterationWeek
	err := row.Scan(&w.ID, &w.IterationID, &w.WeekNumber, &w.StartDate, &w.EndDate, &w.IsMailingDropWeek)
	w.StartDate, w.EndDate = w.StartDate.UTC(), w.EndDate.UTC()
	return w, err
}

func (t *campaignTx) ListWeeks(ctx context.Context, iterationID int64) ([]domain.IterationWeek, error) {
	rows, err := t.tx.Query(ctx, `
        SELECT id, iteration_id, week_number, start_date, end_date, is_mailing_drop_week
          FROM iteration_weeks
         WHERE iteration_id = $1
         ORDER BY week_number`, iterationID)
	if err != nil {
		return nil, fmt.Errorf("list weeks: %w", err)
	}
	return pgx.CollectRows(rows, scanWeek)
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func (t *campaignTx) CreateBatch(ctx context.Context, b *domain.Batch) error {
	err := t.tx.QueryRow(ctx, `
        INSERT INTO batches (iteration_week_id, status, prospect_ids)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`,
		b.IterationWeekID, b.Status, nonNil(b.ProspectIDs),
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (t *campaignTx) UpdateBatch(ctx context.Context, b *domain.Batch) error {
	err := t.tx.QueryRow(ctx, `
        UPDATE batches SET status = $2, prospect_ids = $3, updated_at = now()
         WHERE id = $1
     RETURNING updated_at`,
		b.ID, b.Status, nonNil(b.ProspectIDs),
	).Scan(&b.UpdatedAt)
	if err != nil {
		return notFound(err, "update batch %d", b.ID)
	}
	return nil
}

func (t *campaignTx) SetBatchStatus(ctx context.Context, ids []int64, status domain.BatchStatus) error {
	if len(ids) == 0 {
		return nil
	}
	tag, err := t.tx.Exec(ctx, `UPDATE batches SET status = $1, updated_at = now() WHERE id = ANY($2)`, status, ids)
	if err != nil {
		return fmt.Errorf("set batch status: %w", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return fmt.Errorf("set batch status: %d of %d batches: %w", tag.RowsAffected(), len(ids), port.ErrNotFound)
	}
	return nil
}

const weekBatchQuery = `
        SELECT b.id, b.iteration_week_id, b.status, b.prospect_ids, b.created_at, b.updated_at,
               w.id, w.iteration_id, w.week_number, w.start_date, w.end_date, w.is_mailing_drop_week,
               i.campaign_id
          FROM batches b
          JOIN iteration_weeks w ON w.id = b.iteration_week_id
          JOIN campaign_iterations i ON i.id = w.iteration_id`

func scanWeekBatch(row pgx.CollectableRow) (domain.WeekBatch, error) {
	var wb domain.WeekBatch
	err := row.Scan(
		&wb.Batch.ID,
		&wb.Batch.IterationWeekID,
		&wb.Batch.Status,
		&wb.Batch.ProspectIDs,
		&wb.Batch.CreatedAt,
		&wb.Batch.UpdatedAt,
		&wb.Week.ID,
		&wb.Week.IterationID,
		&wb.Week.WeekNumber,
		&wb.Week.StartDate,
		&wb.Week.EndDate,
		&wb.Week.IsMailingDropWeek,
		&wb.CampaignID,
	)
	wb.IterationID = wb.Week.IterationID
	wb.Week.StartDate, wb.Week.EndDate = wb.Week.StartDate.UTC(), wb.Week.EndDate.UTC()
	return wb, err
}

func (t *campaignTx) ListCampaignBatches(ctx context.Context, campaignID int64) ([]domain.WeekBatch, error) {
	rows, err := t.tx.Query(ctx, weekBatchQuery+`
         WHERE i.campaign_id = $1
         ORDER BY w.week_number, b.id
           FOR UPDATE OF b`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list campaign batches: %w", err)
	}
	return pgx.CollectRows(rows, scanWeekBatch)
}

func (t *campaignTx) ListBatchesOverlapping(ctx context.Context, from, to time.Time) ([]domain.WeekBatch, error) {
	rows, err := t.tx.Query(ctx, weekBatchQuery+`
         WHERE w.start_date <= $2 AND w.end_date >= $1
         ORDER BY b.id
           FOR UPDATE OF b`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list overlapping batches: %w", err)
	}
	return pgx.CollectRows(rows, scanWeekBatch)
}

func (t *campaignTx) AppendCampaignEvent(ctx context.Context, e *domain.CampaignEvent) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	err := t.tx.QueryRow(ctx, `
        INSERT INTO campaign_events (campaign_id, idempotency_key, from_status, to_status, occurred_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`,
		e.CampaignID, e.IdempotencyKey, e.FromStatus, e.ToStatus, e.OccurredAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert campaign event: %w", err)
	}
	return nil
}

const eventColumns = `id, campaign_id, idempotency_key, from_status, to_status, occurred_at`

func scanEvent(row pgx.CollectableRow) (domain.CampaignEvent, error) {
	var e domain.CampaignEvent
	err := row.Scan(&e.ID, &e.CampaignID, &e.IdempotencyKey, &e.FromStatus, &e.ToStatus, &e.OccurredAt)
	e.OccurredAt = e.OccurredAt.UTC()
	return e, err
}

func (t *campaignTx) latestEvent(ctx context.Context, query string, args ...any) (*domain.CampaignEvent, error) {
	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanEvent)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (t *campaignTx) LatestEventByKey(ctx context.Context, key string) (*domain.CampaignEvent, error) {
	e, err := t.latestEvent(ctx, `SELECT `+eventColumns+` FROM campaign_events
        WHERE idempotency_key = $1 ORDER BY id DESC LIMIT 1`, key)
	if err != nil {
		return nil, notFound(err, "event for key %q", key)
	}
	return e, nil
}

func (t *campaignTx) LatestEventTo(ctx context.Context, campaignID int64, status domain.LifecycleStatus) (*domain.CampaignEvent, error) {
	e, err := t.latestEvent(ctx, `SELECT `+eventColumns+` FROM campaign_events
        WHERE campaign_id = $1 AND to_status = $2 ORDER BY id DESC LIMIT 1`, campaignID, status)
	if err != nil {
		return nil, notFound(err, "campaign %d event to %s", campaignID, status)
	}
	return e, nil
}

func (t *campaignTx) ListCampaignEvents(ctx context.Context, campaignID int64) ([]domain.CampaignEvent, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+eventColumns+` FROM campaign_events
        WHERE campaign_id = $1
           OR (campaign_id IS NULL
               AND idempotency_key = (SELECT idempotency_key FROM campaigns WHERE id = $1))
        ORDER BY id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list campaign events: %w", err)
	}
	return pgx.CollectRows(rows, scanEvent)
}

func (t *campaignTx) FindBulkStatusEvent(ctx context.Context, year, week int, status domain.BatchStatus) (*domain.BulkStatusEvent, error) {
	var e domain.BulkStatusEvent
	err := t.tx.QueryRow(ctx, `
        SELECT id, iso_year, iso_week, target_status, affected_batch_ids, created_at
          FROM bulk_status_events
         WHERE iso_year = $1 AND iso_week = $2 AND target_status = $3
         ORDER BY id DESC
         LIMIT 1`, year, week, status,
	).Scan(&e.ID, &e.Year, &e.Week, &e.TargetStatus, &e.AffectedBatchIDs, &e.CreatedAt)
	if err != nil {
		return nil, notFound(err, "bulk status event %d-W%02d %s", year, week, status)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

func (t *campaignTx) CreateBulkStatusEvent(ctx context.Context, e *domain.BulkStatusEvent) error {
	err := t.tx.QueryRow(ctx, `
        INSERT INTO bulk_status_events (iso_year, iso_week, target_status, affected_batch_ids)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`,
		e.Year, e.Week, e.TargetStatus, nonNil(e.AffectedBatchIDs),
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert bulk status event: %w", err)
	}
	return nil
}
