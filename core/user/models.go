package user

import (
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/mahudhurio/core"
)

// Role is the closed set of user roles. Every decision point switches on it
// exhaustively so an unknown role can never fall through silently.
type Role string

const (
	RoleStudent  Role = "student"
	RoleLecturer Role = "lecturer"
	RoleAdmin    Role = "admin"
)

var AllRoles = []Role{RoleStudent, RoleLecturer, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleLecturer, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	OtherName    string    `json:"other_name,omitempty"`
	Email        string    `json:"email"`
	MatricNumber string    `json:"matric_number,omitempty"` // students only
	Level        int       `json:"level,omitempty"`         // students only
	FacultyID    string    `json:"faculty_id"`
	DepartmentID string    `json:"department_id"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.FirstName, u.OtherName, u.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsStudent() bool  { return u.Role == RoleStudent }
func (u *User) IsLecturer() bool { return u.Role == RoleLecturer }
func (u *User) IsAdmin() bool    { return u.Role == RoleAdmin }

// Normalize title-cases name fields, lower-cases the email and upper-cases
// the matric number. Applied on every save; idempotent.
func (u *User) Normalize() {
	u.FirstName = core.TitleCase(u.FirstName)
	u.LastName = core.TitleCase(u.LastName)
	u.OtherName = core.TitleCase(u.OtherName)
	u.Email = core.CleanString(u.Email, true /* lower */)
	u.MatricNumber = strings.ToUpper(core.CleanString(u.MatricNumber))
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	OtherName    string `json:"other_name"`
	Email        string `json:"email" validate:"required,email"`
	MatricNumber string `json:"matric_number" validate:"omitempty,matric"`
	Level        int    `json:"level" validate:"omitempty,level"`
	FacultyID    string `json:"faculty_id" validate:"required"`
	DepartmentID string `json:"department_id" validate:"required"`
	Role         Role   `json:"role" validate:"required,role"`
	// Password may be omitted for students: a temporary default is derived
	// from the last name and must be rotated on first login.
	Password string `json:"password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.OtherName = core.CleanString(nu.OtherName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.MatricNumber = strings.ToUpper(core.CleanString(nu.MatricNumber))

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Email, nu.MatricNumber)
}

// UpdateUser defines what information may be provided to modify an existing
// User. The role is fixed at creation and cannot change.
type UpdateUser struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	OtherName    string `json:"other_name"`
	Email        string `json:"email" validate:"omitempty,email"`
	MatricNumber string `json:"matric_number" validate:"omitempty,matric"`
	Level        int    `json:"level" validate:"omitempty,level"`
	IsActive     *bool  `json:"is_active"`
	Password     string `json:"password"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate, origUsr User, svc *Service) error {
	if name := core.CleanString(uu.FirstName); name != "" {
		uu.FirstName = name
	} else {
		uu.FirstName = origUsr.FirstName
	}
	if name := core.CleanString(uu.LastName); name != "" {
		uu.LastName = name
	} else {
		uu.LastName = origUsr.LastName
	}
	uu.OtherName = core.CleanString(uu.OtherName)

	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}
	if matric := strings.ToUpper(core.CleanString(uu.MatricNumber)); matric != "" {
		uu.MatricNumber = matric
	} else {
		uu.MatricNumber = origUsr.MatricNumber
	}
	if uu.Level == 0 {
		uu.Level = origUsr.Level
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	if err := validateRoleFields(origUsr.Role, uu.MatricNumber, uu.Level); err != nil {
		return err
	}
	return svc.checkUniqueness(uu.Email, uu.MatricNumber, origUsr)
}

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	validate.RegisterStructValidation(newUserStructValidation, NewUser{})
	core.RegisterCustomTranslation(validate, translator, matricRequiredTag, matricRequiredText)
	core.RegisterCustomTranslation(validate, translator, levelRequiredTag, levelRequiredText)
	core.RegisterCustomTranslation(validate, translator, matricForbiddenTag, matricForbiddenText)
	core.RegisterCustomTranslation(validate, translator, levelForbiddenTag, levelForbiddenText)
}
