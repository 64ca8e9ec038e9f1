package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"blood-donation/internal/domain"
)

type AccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.Account, error)
	// UpsertByExternalID inserts or refreshes the account mirrored from the
	// identity provider. account.ID is replaced with the stored id.
	UpsertByExternalID(ctx context.Context, account *domain.Account) error
	Update(ctx context.Context, account *domain.Account) error
	SetRole(ctx context.Context, id uuid.UUID, role domain.AccountRole) error
	DeactivateByExternalID(ctx context.Context, externalID string) (bool, error)
	List(ctx context.Context, role *domain.AccountRole, params domain.PaginationParams) ([]domain.Account, int64, error)
}

type accountRepository struct {
	db dbtx
}

func NewAccountRepository(db dbtx) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, external_id, email, first_name, last_name, avatar_url, role, is_active, created_at, updated_at`

func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *accountRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Account, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE external_id = $1`, externalID)
}

func (r *accountRepository) get(ctx context.Context, query string, arg interface{}) (*domain.Account, error) {
	var account domain.Account
	err := r.db.GetContext(ctx, &account, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) UpsertByExternalID(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, external_id, email, first_name, last_name, avatar_url, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)
		ON CONFLICT (external_id) DO UPDATE
		SET email = EXCLUDED.email, first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
			avatar_url = EXCLUDED.avatar_url, role = EXCLUDED.role, is_active = true, updated_at = NOW()
		RETURNING id, is_active, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		account.ID, account.ExternalID, account.Email, account.FirstName, account.LastName,
		account.AvatarURL, account.Role,
	).Scan(&account.ID, &account.IsActive, &account.CreatedAt, &account.UpdatedAt)
}

func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET first_name = $2, last_name = $3, avatar_url = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRowxContext(ctx, query,
		account.ID, account.FirstName, account.LastName, account.AvatarURL,
	).Scan(&account.UpdatedAt)
}

func (r *accountRepository) SetRole(ctx context.Context, id uuid.UUID, role domain.AccountRole) error {
	query := `UPDATE accounts SET role = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, role)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) DeactivateByExternalID(ctx context.Context, externalID string) (bool, error) {
	query := `UPDATE accounts SET is_active = false, updated_at = NOW() WHERE external_id = $1 AND is_active = true`
	result, err := r.db.ExecContext(ctx, query, externalID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

func (r *accountRepository) List(ctx context.Context, role *domain.AccountRole, params domain.PaginationParams) ([]domain.Account, int64, error) {
	params.Validate()

	var total int64
	var accounts []domain.Account

	if role != nil {
		if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM accounts WHERE role = $1`, *role); err != nil {
			return nil, 0, err
		}
		query := `
			SELECT ` + accountColumns + ` FROM accounts
			WHERE role = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3`
		err := r.db.SelectContext(ctx, &accounts, query, *role, params.PageSize, params.Offset())
		return accounts, total, err
	}

	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM accounts`); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + accountColumns + ` FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	err := r.db.SelectContext(ctx, &accounts, query, params.PageSize, params.Offset())
	return accounts, total, err
}
