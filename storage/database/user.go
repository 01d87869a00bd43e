package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core/user"
)

type userRow struct {
	ID           string      `db:"id"`
	FirstName    string      `db:"first_name"`
	LastName     string      `db:"last_name"`
	OtherName    string      `db:"other_name"`
	Email        string      `db:"email"`
	MatricNumber null.String `db:"matric_number"`
	Level        null.Int    `db:"level"`
	FacultyID    string      `db:"faculty_id"`
	DepartmentID string      `db:"department_id"`
	Role         string      `db:"role"`
	IsActive     bool        `db:"is_active"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func (r userRow) unpack() user.User {
	return user.User{
		ID:           r.ID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		OtherName:    r.OtherName,
		Email:        r.Email,
		MatricNumber: r.MatricNumber.String,
		Level:        r.Level.Int,
		FacultyID:    r.FacultyID,
		DepartmentID: r.DepartmentID,
		Role:         user.Role(r.Role),
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func packUser(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		FirstName:    usr.FirstName,
		LastName:     usr.LastName,
		OtherName:    usr.OtherName,
		Email:        usr.Email,
		MatricNumber: null.NewString(usr.MatricNumber, usr.MatricNumber != ""),
		Level:        null.NewInt(usr.Level, usr.Level != 0),
		FacultyID:    usr.FacultyID,
		DepartmentID: usr.DepartmentID,
		Role:         usr.Role.String(),
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

const userColumns = `id, first_name, last_name, other_name, email, matric_number, level,
	faculty_id, department_id, role, is_active, password_hash, created_at, updated_at, last_login`

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUniqueness(ctx context.Context, email, matricNumber string, excludedUsers ...user.User) error {
	exclIDs := make([]string, 0, len(excludedUsers)+1)
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}
	if len(exclIDs) == 0 {
		exclIDs = append(exclIDs, uuid.Nil.String()) // keep NOT IN well-formed
	}

	check := func(query, value string, resErr error) error {
		q, args, err := sqlx.In(query, value, exclIDs)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		var exists bool
		err = repo.db.GetContext(ctx, &exists, repo.db.Rebind(q), args...)
		if err != nil && errors.Cause(err) != sql.ErrNoRows {
			return errors.Wrap(err, "checking uniqueness")
		}
		if exists {
			return resErr
		}
		return nil
	}

	if email != "" {
		q := `SELECT true FROM "user" WHERE LOWER(email) = LOWER(?) AND id NOT IN (?) LIMIT 1`
		if err := check(q, email, user.ErrEmailExists); err != nil {
			return err
		}
	}
	if matricNumber != "" {
		q := `SELECT true FROM "user" WHERE LOWER(matric_number) = LOWER(?) AND id NOT IN (?) LIMIT 1`
		if err := check(q, matricNumber, user.ErrMatricNumberExists); err != nil {
			return err
		}
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := packUser(usr)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO "user" (`+userColumns+`)
		VALUES (:id, :first_name, :last_name, :other_name, :email, :matric_number, :level,
			:faculty_id, :department_id, :role, :is_active, :password_hash, :created_at, :updated_at, :last_login)`,
		row,
	)
	if err != nil {
		if isUniqueViolation(err, "user_email_key") {
			return user.User{}, user.ErrEmailExists
		}
		if isUniqueViolation(err, "user_matric_number_key") {
			return user.User{}, user.ErrMatricNumberExists
		}
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+userColumns+` FROM "user" ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.unpack())
	}
	return users, nil
}

func (repo userRepository) getUser(ctx context.Context, query string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return row.unpack(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, `SELECT `+userColumns+` FROM "user" WHERE id = $1`, id)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, `SELECT `+userColumns+` FROM "user" WHERE LOWER(email) = LOWER($1)`, email)
}

func (repo userRepository) GetUserByMatricNumber(ctx context.Context, matricNumber string) (user.User, error) {
	return repo.getUser(ctx, `SELECT `+userColumns+` FROM "user" WHERE LOWER(matric_number) = LOWER($1)`, matricNumber)
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	row := packUser(usr)
	res, err := repo.db.ExecContext(ctx, `
		UPDATE "user"
		SET first_name = $2, last_name = $3, other_name = $4, email = $5, matric_number = $6,
			level = $7, is_active = COALESCE($8, is_active),
			password_hash = CASE WHEN length($9) > 0 THEN $9 ELSE password_hash END,
			updated_at = $10
		WHERE id = $1`,
		row.ID, row.FirstName, row.LastName, row.OtherName, row.Email, row.MatricNumber,
		row.Level, isActive, row.PasswordHash, row.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "user_email_key") {
			return user.User{}, user.ErrEmailExists
		}
		if isUniqueViolation(err, "user_matric_number_key") {
			return user.User{}, user.ErrMatricNumberExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo userRepository) SetLastLogin(ctx context.Context, id string, t time.Time) error {
	_, err := repo.db.ExecContext(ctx, `UPDATE "user" SET last_login = $2 WHERE id = $1`, id, t.UTC())
	return errors.Wrap(err, "setting last login")
}
