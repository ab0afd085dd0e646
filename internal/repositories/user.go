package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/shared"
)

// UserRepository implements [models.Repository] for backend [models.Account] persistence.
type UserRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Account] = (*UserRepository)(nil)

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const accountColumns = `id, username, email, first_name, last_name, password_hash, created_at, updated_at`

// Create inserts a new account and sets its generated key
func (r *UserRepository) Create(acct *models.Account) error {
	if err := acct.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	u := acct.User()
	query := `
		INSERT INTO accounts (username, email, first_name, last_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query, u.Username, u.Email, u.FirstName, u.LastName, acct.PasswordHash(), acct.CreatedAt(), acct.UpdatedAt())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: username %q is taken", shared.ErrInvalidInput, u.Username)
	}
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get account id: %w", err)
	}
	acct.SetKey(id)
	return nil
}

// Get retrieves an account by ID
func (r *UserRepository) Get(id int64) (*models.Account, error) {
	row := r.db.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	acct, err := scanAccount(row)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: id %d", shared.ErrUserNotFound, id)
	}
	return acct, err
}

// GetByUsername retrieves an account by its unique username
func (r *UserRepository) GetByUsername(username string) (*models.Account, error) {
	row := r.db.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username)
	acct, err := scanAccount(row)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, username)
	}
	return acct, err
}

// Update modifies an account's profile and password hash
func (r *UserRepository) Update(acct *models.Account) error {
	if err := acct.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now()
	acct.SetUpdatedAt(now)

	u := acct.User()
	query := `
		UPDATE accounts
		SET username = ?, email = ?, first_name = ?, last_name = ?, password_hash = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, u.Username, u.Email, u.FirstName, u.LastName, acct.PasswordHash(), now, acct.Key())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: username %q is taken", shared.ErrInvalidInput, u.Username)
	}
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: id %d", shared.ErrUserNotFound, acct.Key()))
}

// Delete removes an account and, through the foreign key, its notes
func (r *UserRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: id %d", shared.ErrUserNotFound, id))
}

// List retrieves all accounts ordered by username
func (r *UserRepository) List() ([]*models.Account, error) {
	rows, err := r.db.Query(`SELECT ` + accountColumns + ` FROM accounts ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return accounts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*models.Account, error) {
	var (
		id        int64
		u         models.User
		hash      string
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&id, &u.Username, &u.Email, &u.FirstName, &u.LastName, &hash, &createdAt, &updatedAt)
	if isNoRows(err) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	acct := models.NewAccount(u, hash)
	acct.SetKey(id)
	acct.SetCreatedAt(createdAt)
	acct.SetUpdatedAt(updatedAt)
	return acct, nil
}
