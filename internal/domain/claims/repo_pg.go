package claims

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type claimRepoPG struct{ db queryable }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &claimRepoPG{db: pool} }

const claimCols = `id, user_id, document_id, document_type, file_name, status, extracted_data,
	patient_name, provider_name, service_date, amount, claim_type, created_at, updated_at`

func (r *claimRepoPG) scanClaim(row pgx.Row) (*Claim, error) {
	var (
		c                 Claim
		docType, fileName *string
		data              []byte
	)
	err := row.Scan(&c.ID, &c.UserID, &c.DocumentID, &docType, &fileName, &c.Status, &data,
		&c.PatientName, &c.ProviderName, &c.ServiceDate, &c.Amount, &c.ClaimType,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if docType != nil {
		c.DocumentType = *docType
	}
	if fileName != nil {
		c.FileName = *fileName
	}
	if err := json.Unmarshal(data, &c.ExtractedData); err != nil {
		return nil, fmt.Errorf("decode extracted_data for claim %s: %w", c.ID, err)
	}
	return &c, nil
}

func (r *claimRepoPG) Create(ctx context.Context, c *Claim) error {
	data, err := json.Marshal(c.ExtractedData)
	if err != nil {
		return fmt.Errorf("encode extracted_data: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO claims (id, user_id, document_id, document_type, file_name, status, extracted_data,
			patient_name, provider_name, service_date, amount, claim_type, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		c.ID, c.UserID, c.DocumentID, c.DocumentType, c.FileName, c.Status, data,
		c.PatientName, c.ProviderName, c.ServiceDate, c.Amount, c.ClaimType,
		c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *claimRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return r.scanClaim(r.db.QueryRow(ctx, `SELECT `+claimCols+` FROM claims WHERE id = $1`, id))
}

func (r *claimRepoPG) GetByDocumentID(ctx context.Context, userID uuid.UUID, documentID string) (*Claim, error) {
	return r.scanClaim(r.db.QueryRow(ctx,
		`SELECT `+claimCols+` FROM claims WHERE user_id = $1 AND document_id = $2`, userID, documentID))
}

func (r *claimRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, f ListFilter, limit, offset int) ([]*Claim, int, error) {
	where := ` WHERE user_id = $1`
	args := []interface{}{userID}
	if f.Status != "" {
		where += ` AND status = $2`
		args = append(args, f.Status)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM claims`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM claims%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		claimCols, where, f.orderBy(), len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []*Claim{}
	for rows.Next() {
		c, err := r.scanClaim(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}
