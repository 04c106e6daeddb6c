package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"proxy-admin-bot/internal/domain"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.TemplateRepository = (*templateRepo)(nil)

type templateRepo struct {
	pool *pgxpool.Pool
}

func NewTemplateRepo(pool *pgxpool.Pool) *templateRepo {
	return &templateRepo{pool: pool}
}

// Save inserts t when its ID is zero and updates it otherwise.
func (r *templateRepo) Save(ctx context.Context, tx repository.Tx, t *model.UserTemplate) error {
	inbounds, err := json.Marshal(t.Inbounds.Clone())
	if err != nil {
		return fmt.Errorf("encode template inbounds: %w", err)
	}
	if t.ID == 0 {
		const q = `
INSERT INTO user_templates (name, data_limit, expire_duration, username_prefix, username_suffix, inbounds, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id;`
		row, err := pickRow(ctx, r.pool, tx, q,
			t.Name, t.DataLimit, t.ExpireDuration, t.UsernamePrefix, t.UsernameSuffix, inbounds, t.CreatedAt)
		if err != nil {
			return err
		}
		if err := row.Scan(&t.ID); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAlreadyExists
			}
			return fmt.Errorf("save template: %w", err)
		}
		return nil
	}

	const q = `
UPDATE user_templates
   SET name=$2, data_limit=$3, expire_duration=$4, username_prefix=$5, username_suffix=$6, inbounds=$7
 WHERE id=$1;`
	ct, err := execSQL(ctx, r.pool, tx, q,
		t.ID, t.Name, t.DataLimit, t.ExpireDuration, t.UsernamePrefix, t.UsernameSuffix, inbounds)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("save template: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const templateColumns = `id, name, data_limit, expire_duration, username_prefix, username_suffix, inbounds, created_at`

func scanTemplate(row scanner) (*model.UserTemplate, error) {
	var (
		t        model.UserTemplate
		inbounds []byte
	)
	if err := row.Scan(&t.ID, &t.Name, &t.DataLimit, &t.ExpireDuration, &t.UsernamePrefix, &t.UsernameSuffix, &inbounds, &t.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(inbounds, &t.Inbounds); err != nil {
		return nil, fmt.Errorf("decode template inbounds: %w", err)
	}
	return &t, nil
}

func (r *templateRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.UserTemplate, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+templateColumns+` FROM user_templates WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	t, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find template: %w", err)
	}
	return t, nil
}

func (r *templateRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.UserTemplate, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+templateColumns+` FROM user_templates ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()
	var out []*model.UserTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *templateRepo) Delete(ctx context.Context, tx repository.Tx, id int64) error {
	ct, err := execSQL(ctx, r.pool, tx, `DELETE FROM user_templates WHERE id=$1;`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
