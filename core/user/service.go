package user

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrMatricNumberExists = errors.New("a user with this matric number already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")

	errPasswordRequired = "a password is required for this role"
)

type (
	Repository interface {
		// CheckUniqueness returns ErrEmailExists or ErrMatricNumberExists when
		// another user (not in excludedUsers) already holds either value.
		CheckUniqueness(ctx context.Context, email, matricNumber string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		// GetUserByEmail and GetUserByMatricNumber match case-insensitively.
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUserByMatricNumber(ctx context.Context, matricNumber string) (User, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error)
		SetLastLogin(ctx context.Context, id string, t time.Time) error
	}

	Service struct {
		repo Repository
		conf *core.Config
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{repo: repo, conf: conf}
}

func (svc *Service) checkUniqueness(email, matricNumber string, exclUsers ...User) error {
	if err := svc.repo.CheckUniqueness(context.Background(), email, matricNumber, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrEmailExists:
			field = "email"
		case ErrMatricNumberExists:
			field = "matric_number"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// Create persists a new user. Students created without a password get a
// temporary one derived from their last name; other roles must supply one.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		OtherName:    nu.OtherName,
		Email:        nu.Email,
		MatricNumber: nu.MatricNumber,
		Level:        nu.Level,
		FacultyID:    nu.FacultyID,
		DepartmentID: nu.DepartmentID,
		Role:         nu.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	pwd := nu.Password
	if pwd == "" {
		if nu.Role != RoleStudent {
			return User{}, core.NewValidationError(nil, core.FieldError{Field: "password", Error: errPasswordRequired})
		}
		pwd = strings.ToLower(nu.LastName)
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}

	usr.Normalize()
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) GetByMatricNumber(ctx context.Context, matricNumber string) (User, error) {
	return svc.repo.GetUserByMatricNumber(ctx, core.CleanString(matricNumber))
}

// ResolveIdentity finds the unique user matching the credential: an email if
// it contains '@', a matric number otherwise. Both are unique so ambiguity is
// impossible.
func (svc *Service) ResolveIdentity(ctx context.Context, credential string) (User, error) {
	credential = core.CleanString(credential)
	if strings.Contains(credential, "@") {
		return svc.GetByEmail(ctx, credential)
	}
	return svc.GetByMatricNumber(ctx, credential)
}

// Authenticate resolves the credential and verifies the password against the
// stored hash. On success the user's last login is updated.
func (svc *Service) Authenticate(ctx context.Context, credential, password string) (User, error) {
	usr, err := svc.ResolveIdentity(ctx, credential)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "resolving identity")
	}
	if err = usr.CheckPassword(password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}

	usr.LastLogin = time.Now().UTC()
	if err = svc.repo.SetLastLogin(ctx, usr.ID, usr.LastLogin); err != nil {
		return User{}, errors.Wrap(err, "setting last login")
	}
	return usr, nil
}

// Update modifies an existing user. The role cannot change after creation.
func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	orig, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	usr := User{
		ID:           id,
		FirstName:    uu.FirstName,
		LastName:     uu.LastName,
		OtherName:    uu.OtherName,
		Email:        uu.Email,
		MatricNumber: uu.MatricNumber,
		Level:        uu.Level,
		FacultyID:    orig.FacultyID,
		DepartmentID: orig.DepartmentID,
		Role:         orig.Role,
		UpdatedAt:    time.Now().UTC(),
	}
	if uu.Password != "" {
		if err = usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}

	usr.Normalize()
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive)
}
