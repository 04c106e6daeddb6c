package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"proxy-admin-bot/internal/domain"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.AccountRepository = (*accountRepo)(nil)

type accountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *accountRepo {
	return &accountRepo{pool: pool}
}

const accountColumns = `id, username, status, data_limit, used_traffic, lifetime_used_traffic,
       expire, on_hold_expire_duration, on_hold_timeout, note, proxies, inbounds,
       sub_revoked_at, sub_updated_at, online_at, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*model.Account, error) {
	var (
		a                 model.Account
		proxies, inbounds []byte
	)
	if err := row.Scan(
		&a.ID, &a.Username, &a.Status, &a.DataLimit, &a.UsedTraffic, &a.LifetimeUsedTraffic,
		&a.Expire, &a.OnHoldExpireDuration, &a.OnHoldTimeout, &a.Note, &proxies, &inbounds,
		&a.SubRevokedAt, &a.SubUpdatedAt, &a.OnlineAt, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(proxies, &a.Proxies); err != nil {
		return nil, fmt.Errorf("decode proxies of %s: %w", a.Username, err)
	}
	if err := json.Unmarshal(inbounds, &a.Inbounds); err != nil {
		return nil, fmt.Errorf("decode inbounds of %s: %w", a.Username, err)
	}
	if a.Inbounds == nil {
		a.Inbounds = model.Inbounds{}
	}
	return &a, nil
}

func collectAccounts(rows pgx.Rows) ([]*model.Account, error) {
	defer rows.Close()
	var out []*model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func encodeJSON(proxies map[model.ProxyType]model.ProxySettings, inbounds model.Inbounds) ([]byte, []byte, error) {
	if proxies == nil {
		proxies = map[model.ProxyType]model.ProxySettings{}
	}
	p, err := json.Marshal(proxies)
	if err != nil {
		return nil, nil, err
	}
	i, err := json.Marshal(inbounds.Clone())
	if err != nil {
		return nil, nil, err
	}
	return p, i, nil
}

func (r *accountRepo) Create(ctx context.Context, tx repository.Tx, a *model.Account) error {
	const q = `
INSERT INTO accounts (
  username, status, data_limit, expire, on_hold_expire_duration, on_hold_timeout,
  note, proxies, inbounds, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING id;`
	proxies, inbounds, err := encodeJSON(a.Proxies, a.Inbounds)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	row, err := pickRow(ctx, r.pool, tx, q,
		a.Username, a.Status, a.DataLimit, a.Expire, a.OnHoldExpireDuration, a.OnHoldTimeout,
		a.Note, proxies, inbounds, a.CreatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&a.ID); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *accountRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE username=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, username)
	if err != nil {
		return nil, err
	}
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return a, nil
}

// Update writes every operator-owned column. Traffic counters belong to the
// core's stats collector and are left alone.
func (r *accountRepo) Update(ctx context.Context, tx repository.Tx, a *model.Account) error {
	const q = `
UPDATE accounts SET
  status=$2, data_limit=$3, expire=$4, on_hold_expire_duration=$5, on_hold_timeout=$6,
  note=$7, proxies=$8, inbounds=$9, sub_revoked_at=$10
WHERE username=$1;`
	proxies, inbounds, err := encodeJSON(a.Proxies, a.Inbounds)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	ct, err := execSQL(ctx, r.pool, tx, q,
		a.Username, a.Status, a.DataLimit, a.Expire, a.OnHoldExpireDuration, a.OnHoldTimeout,
		a.Note, proxies, inbounds, a.SubRevokedAt)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accountRepo) Delete(ctx context.Context, tx repository.Tx, username string) error {
	ct, err := execSQL(ctx, r.pool, tx, `DELETE FROM accounts WHERE username=$1;`, username)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accountRepo) ResetUsage(ctx context.Context, tx repository.Tx, username string) error {
	const q = `
UPDATE accounts
   SET lifetime_used_traffic = lifetime_used_traffic + used_traffic,
       used_traffic = 0
 WHERE username=$1;`
	ct, err := execSQL(ctx, r.pool, tx, q, username)
	if err != nil {
		return fmt.Errorf("reset usage: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accountRepo) RevokeSubscription(ctx context.Context, tx repository.Tx, username string, at time.Time) error {
	ct, err := execSQL(ctx, r.pool, tx, `UPDATE accounts SET sub_revoked_at=$2 WHERE username=$1;`, username, at)
	if err != nil {
		return fmt.Errorf("revoke subscription: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns accounts matching f, newest first.
func (r *accountRepo) List(ctx context.Context, tx repository.Tx, f model.AccountFilter) ([]*model.Account, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if len(f.Usernames) > 0 {
		where = append(where, "username = ANY("+arg(f.Usernames)+")")
	}
	if len(f.Statuses) > 0 {
		st := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			st[i] = string(s)
		}
		where = append(where, "status = ANY("+arg(st)+")")
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + accountColumns + ` FROM accounts`)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	if f.Limit > 0 {
		b.WriteString(" LIMIT " + arg(f.Limit))
	}
	if f.Offset > 0 {
		b.WriteString(" OFFSET " + arg(f.Offset))
	}

	rows, err := queryRows(ctx, r.pool, tx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return collectAccounts(rows)
}

func (r *accountRepo) Count(ctx context.Context, tx repository.Tx, status *model.AccountStatus) (int, error) {
	q, args := `SELECT COUNT(*) FROM accounts;`, []any{}
	if status != nil {
		q, args = `SELECT COUNT(*) FROM accounts WHERE status=$1;`, []any{*status}
	}
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

func (r *accountRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.AccountStatus]int, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT status, COUNT(*) FROM accounts GROUP BY status;`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()
	out := map[model.AccountStatus]int{}
	for rows.Next() {
		var (
			st model.AccountStatus
			n  int
		)
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		out[st] = n
	}
	return out, rows.Err()
}

func (r *accountRepo) Exists(ctx context.Context, tx repository.Tx, username string) (bool, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE username=$1);`, username)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, fmt.Errorf("account exists: %w", err)
	}
	return ok, nil
}

func (r *accountRepo) DeleteByStatus(ctx context.Context, tx repository.Tx, status model.AccountStatus) ([]*model.Account, error) {
	q := `DELETE FROM accounts WHERE status=$1 RETURNING ` + accountColumns + `;`
	rows, err := queryRows(ctx, r.pool, tx, q, status)
	if err != nil {
		return nil, fmt.Errorf("delete by status: %w", err)
	}
	return collectAccounts(rows)
}

func collectNames(rows pgx.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// AddDataLimit never turns a capped account into an unlimited one; accounts
// whose limit would drop to zero or below are left untouched.
func (r *accountRepo) AddDataLimit(ctx context.Context, tx repository.Tx, delta int64) ([]string, error) {
	const q = `
UPDATE accounts SET data_limit = data_limit + $1
 WHERE data_limit > 0
   AND data_limit + $1 > 0
   AND status NOT IN ('limited', 'expired')
RETURNING username;`
	rows, err := queryRows(ctx, r.pool, tx, q, delta)
	if err != nil {
		return nil, fmt.Errorf("add data limit: %w", err)
	}
	return collectNames(rows)
}

func (r *accountRepo) AddExpireTime(ctx context.Context, tx repository.Tx, delta time.Duration) ([]string, error) {
	const q = `
UPDATE accounts SET expire = expire + make_interval(secs => $1)
 WHERE expire IS NOT NULL
   AND status NOT IN ('limited', 'expired')
RETURNING username;`
	rows, err := queryRows(ctx, r.pool, tx, q, delta.Seconds())
	if err != nil {
		return nil, fmt.Errorf("add expire time: %w", err)
	}
	return collectNames(rows)
}

func (r *accountRepo) ListByProtocol(ctx context.Context, tx repository.Tx, p model.ProxyType) ([]*model.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE proxies ? $1 ORDER BY created_at DESC, id DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, string(p))
	if err != nil {
		return nil, fmt.Errorf("list by protocol: %w", err)
	}
	return collectAccounts(rows)
}
