package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swassyman/heart/internal/contracts"
)

// PostgresRepository stores each property as one row with its owned
// collections in jsonb columns, so a save replaces the aggregate atomically.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresRepository(pool *pgxpool.Pool, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{pool: pool, logger: logger}
}

const propertyColumns = `id, address, owner, owner_id, risk_score, image_url, description,
            technical_details, findings, root_causes, future_events, alerts`

// ListProperties returns every decodable row. Rows whose stored documents
// no longer decode are logged and left out.
func (r *PostgresRepository) ListProperties(ctx context.Context) ([]contracts.Property, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT `+propertyColumns+`
        FROM properties
        ORDER BY id ASC
    `)
	if err != nil {
		return nil, transport("query properties", err)
	}
	defer rows.Close()
	return collectProperties(rows, r.logger)
}

type rowIterator interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectProperties(rows rowIterator, logger *slog.Logger) ([]contracts.Property, error) {
	properties := make([]contracts.Property, 0, 16)
	for rows.Next() {
		p, err := scanProperty(rows)
		if errors.Is(err, contracts.ErrCorrupt) {
			logger.Warn("skipping corrupt property row", "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, transport("iterate properties", err)
	}
	return properties, nil
}

func (r *PostgresRepository) GetProperty(ctx context.Context, id string) (contracts.Property, error) {
	return getProperty(ctx, r.pool, id, "")
}

func getProperty(ctx context.Context, q querier, id, lock string) (contracts.Property, error) {
	row := q.QueryRow(ctx, `
        SELECT `+propertyColumns+`
        FROM properties
        WHERE id = $1
        `+lock, id)
	p, err := scanProperty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.Property{}, &contracts.NotFoundError{Entity: "property", ID: id}
	}
	return p, err
}

func (r *PostgresRepository) SaveProperty(ctx context.Context, p contracts.Property) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return upsertProperty(ctx, r.pool, p)
}

// UpdateProperty locks the row with SELECT ... FOR UPDATE, applies fn and
// writes the result in the same transaction.
func (r *PostgresRepository) UpdateProperty(ctx context.Context, id string, fn func(*contracts.Property) error) (contracts.Property, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return contracts.Property{}, transport("begin property update", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := getProperty(ctx, tx, id, "FOR UPDATE")
	if err != nil {
		return contracts.Property{}, err
	}
	if err := fn(&p); err != nil {
		return contracts.Property{}, err
	}
	if p.ID != id {
		return contracts.Property{}, &contracts.ValidationError{Entity: "property", Field: "id", Reason: "cannot change on update"}
	}
	if err := p.Validate(); err != nil {
		return contracts.Property{}, err
	}
	if err := upsertProperty(ctx, tx, p); err != nil {
		return contracts.Property{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return contracts.Property{}, transport("commit property update", err)
	}
	return p, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func upsertProperty(ctx context.Context, q execer, p contracts.Property) error {
	details, err := marshalNullable(p.TechnicalDetails)
	if err != nil {
		return fmt.Errorf("marshal technical details: %w", err)
	}
	findings, err := marshalList(p.Findings)
	if err != nil {
		return fmt.Errorf("marshal findings: %w", err)
	}
	rootCauses, err := marshalList(p.RootCauses)
	if err != nil {
		return fmt.Errorf("marshal root causes: %w", err)
	}
	futureEvents, err := marshalList(p.FutureEvents)
	if err != nil {
		return fmt.Errorf("marshal future events: %w", err)
	}
	alerts, err := marshalList(p.Alerts)
	if err != nil {
		return fmt.Errorf("marshal alerts: %w", err)
	}

	_, err = q.Exec(ctx, `
        INSERT INTO properties
            (id, address, owner, owner_id, risk_score, image_url, description,
             technical_details, findings, root_causes, future_events, alerts)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10::jsonb, $11::jsonb, $12::jsonb)
        ON CONFLICT (id) DO UPDATE SET
            address = EXCLUDED.address,
            owner = EXCLUDED.owner,
            owner_id = EXCLUDED.owner_id,
            risk_score = EXCLUDED.risk_score,
            image_url = EXCLUDED.image_url,
            description = EXCLUDED.description,
            technical_details = EXCLUDED.technical_details,
            findings = EXCLUDED.findings,
            root_causes = EXCLUDED.root_causes,
            future_events = EXCLUDED.future_events,
            alerts = EXCLUDED.alerts,
            updated_at = NOW()
    `, p.ID, p.Address, p.Owner, p.OwnerID, p.RiskScore, p.ImageURL, p.Description,
		details, findings, rootCauses, futureEvents, alerts)
	if err != nil {
		return transport("upsert property", err)
	}
	return nil
}

const inspectionColumns = `id, property_id, inspector_id, inspected_on, summary, status, risk_score, images, completed_at`

func (r *PostgresRepository) ListInspections(ctx context.Context, propertyID string) ([]contracts.Inspection, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT `+inspectionColumns+`
        FROM inspections
        WHERE ($1 = '' OR property_id = $1)
        ORDER BY seq ASC
    `, propertyID)
	if err != nil {
		return nil, transport("query inspections", err)
	}
	defer rows.Close()

	inspections := make([]contracts.Inspection, 0, 16)
	for rows.Next() {
		in, err := scanInspection(rows)
		if err != nil {
			return nil, err
		}
		inspections = append(inspections, in)
	}
	if err := rows.Err(); err != nil {
		return nil, transport("iterate inspections", err)
	}
	return inspections, nil
}

func (r *PostgresRepository) GetInspection(ctx context.Context, id string) (contracts.Inspection, error) {
	return getInspection(ctx, r.pool, id, "")
}

func (r *PostgresRepository) AppendInspection(ctx context.Context, in contracts.Inspection) error {
	images, err := marshalList(in.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
        INSERT INTO inspections
            (id, property_id, inspector_id, inspected_on, summary, status, risk_score, images, completed_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)
    `, in.ID, in.PropertyID, in.InspectorID, in.Date, in.Summary, string(in.Status), in.RiskScore, images, in.CompletedAt)
	if err != nil {
		return transport("insert inspection", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateInspection(ctx context.Context, id string, fn func(*contracts.Inspection) error) (contracts.Inspection, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return contracts.Inspection{}, transport("begin inspection update", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	in, err := getInspection(ctx, tx, id, "FOR UPDATE")
	if err != nil {
		return contracts.Inspection{}, err
	}
	if err := fn(&in); err != nil {
		return contracts.Inspection{}, err
	}

	_, err = tx.Exec(ctx, `
        UPDATE inspections
        SET summary = $2,
            status = $3,
            risk_score = $4,
            completed_at = $5
        WHERE id = $1
    `, in.ID, in.Summary, string(in.Status), in.RiskScore, in.CompletedAt)
	if err != nil {
		return contracts.Inspection{}, transport("update inspection", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return contracts.Inspection{}, transport("commit inspection update", err)
	}
	return in, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getInspection(ctx context.Context, q querier, id, lock string) (contracts.Inspection, error) {
	row := q.QueryRow(ctx, `
        SELECT `+inspectionColumns+`
        FROM inspections
        WHERE id = $1
        `+lock, id)
	in, err := scanInspection(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.Inspection{}, &contracts.NotFoundError{Entity: "inspection", ID: id}
	}
	return in, err
}

func scanProperty(row pgx.Row) (contracts.Property, error) {
	var p contracts.Property
	var detailsRaw, findingsRaw, rootCausesRaw, futureEventsRaw, alertsRaw []byte
	if err := row.Scan(
		&p.ID,
		&p.Address,
		&p.Owner,
		&p.OwnerID,
		&p.RiskScore,
		&p.ImageURL,
		&p.Description,
		&detailsRaw,
		&findingsRaw,
		&rootCausesRaw,
		&futureEventsRaw,
		&alertsRaw,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contracts.Property{}, err
		}
		return contracts.Property{}, transport("scan property", err)
	}

	if len(detailsRaw) > 0 && string(detailsRaw) != "null" {
		p.TechnicalDetails = &contracts.TechnicalDetails{}
		if err := json.Unmarshal(detailsRaw, p.TechnicalDetails); err != nil {
			return contracts.Property{}, corrupt(p.ID, "technicalDetails", err)
		}
	}
	if err := json.Unmarshal(findingsRaw, &p.Findings); err != nil {
		return contracts.Property{}, corrupt(p.ID, "findings", err)
	}
	if err := json.Unmarshal(rootCausesRaw, &p.RootCauses); err != nil {
		return contracts.Property{}, corrupt(p.ID, "rootCauses", err)
	}
	if err := json.Unmarshal(futureEventsRaw, &p.FutureEvents); err != nil {
		return contracts.Property{}, corrupt(p.ID, "futureEvents", err)
	}
	if err := json.Unmarshal(alertsRaw, &p.Alerts); err != nil {
		return contracts.Property{}, corrupt(p.ID, "alerts", err)
	}
	return p, nil
}

func scanInspection(row pgx.Row) (contracts.Inspection, error) {
	var in contracts.Inspection
	var status string
	var imagesRaw []byte
	if err := row.Scan(
		&in.ID,
		&in.PropertyID,
		&in.InspectorID,
		&in.Date,
		&in.Summary,
		&status,
		&in.RiskScore,
		&imagesRaw,
		&in.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contracts.Inspection{}, err
		}
		return contracts.Inspection{}, transport("scan inspection", err)
	}
	in.Status = contracts.InspectionStatus(status)
	if err := json.Unmarshal(imagesRaw, &in.Images); err != nil {
		return contracts.Inspection{}, corrupt(in.ID, "images", err)
	}
	return in, nil
}

func marshalList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	body, err := json.Marshal(items)
	return string(body), err
}

func marshalNullable[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(body), nil
}

func transport(op string, err error) error {
	return &contracts.TransportError{Op: op, Err: err}
}

func corrupt(id, field string, err error) error {
	return fmt.Errorf("row %s field %s: %w: %v", id, field, contracts.ErrCorrupt, err)
}
