package user_test

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/storage/database/inmem"
)

func setup(t *testing.T) (*user.Service, *validator.Validate) {
	t.Helper()

	db, err := inmem.Open()
	require.NoError(t, err)

	conf := core.NewTestConfig()
	svc := user.NewService(inmem.NewUserRepository(db), conf)

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return svc, validate
}

func newStudent(email, matric string) user.NewUser {
	return user.NewUser{
		FirstName:    "jane",
		LastName:     "Doe",
		Email:        email,
		MatricNumber: matric,
		Level:        200,
		FacultyID:    "fac1",
		DepartmentID: "dep1",
		Role:         user.RoleStudent,
	}
}

func newLecturer(email string) user.NewUser {
	return user.NewUser{
		FirstName:    "John",
		LastName:     "Smith",
		Email:        email,
		FacultyID:    "fac1",
		DepartmentID: "dep1",
		Role:         user.RoleLecturer,
		Password:     "s3cret!",
	}
}

func TestService_Create(t *testing.T) {
	svc, validate := setup(t)
	ctx := context.Background()

	t.Run("student gets default password and normalized fields", func(t *testing.T) {
		nu := newStudent("Jane.Doe@school.test", "csc/2021/041")
		require.NoError(t, nu.Validate(validate, svc))

		usr, err := svc.Create(ctx, nu)
		require.NoError(t, err)
		assert.Equal(t, "Jane", usr.FirstName)
		assert.Equal(t, "jane.doe@school.test", usr.Email)
		assert.Equal(t, "CSC/2021/041", usr.MatricNumber)
		assert.True(t, usr.IsActive)
		// default password is the lower-cased last name
		assert.NoError(t, usr.CheckPassword("doe"))
	})

	t.Run("lecturer without password is rejected", func(t *testing.T) {
		nu := newLecturer("no.pwd@school.test")
		nu.Password = ""
		_, err := svc.Create(ctx, nu)
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "password", vErr.Fields[0].Field)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		nu := newStudent("dup@school.test", "CSC/2021/050")
		require.NoError(t, nu.Validate(validate, svc))
		_, err := svc.Create(ctx, nu)
		require.NoError(t, err)

		nu2 := newStudent("dup@school.test", "CSC/2021/051")
		err = nu2.Validate(validate, svc)
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "email", vErr.Fields[0].Field)
	})

	t.Run("duplicate matric number is rejected", func(t *testing.T) {
		nu := newStudent("one@school.test", "CSC/2021/060")
		require.NoError(t, nu.Validate(validate, svc))
		_, err := svc.Create(ctx, nu)
		require.NoError(t, err)

		nu2 := newStudent("two@school.test", "csc/2021/060")
		err = nu2.Validate(validate, svc)
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "matric_number", vErr.Fields[0].Field)
	})
}

func TestService_StructValidation(t *testing.T) {
	svc, validate := setup(t)

	tests := []struct {
		name    string
		nu      user.NewUser
		wantFld string
	}{
		{
			name: "student without matric number",
			nu: user.NewUser{
				FirstName: "A", LastName: "B", Email: "a@b.test",
				Level: 100, FacultyID: "f", DepartmentID: "d", Role: user.RoleStudent,
			},
			wantFld: "matric_number",
		},
		{
			name: "student without level",
			nu: user.NewUser{
				FirstName: "A", LastName: "B", Email: "a@b.test",
				MatricNumber: "CSC/2021/001", FacultyID: "f", DepartmentID: "d", Role: user.RoleStudent,
			},
			wantFld: "level",
		},
		{
			name: "lecturer with matric number",
			nu: user.NewUser{
				FirstName: "A", LastName: "B", Email: "a@b.test",
				MatricNumber: "CSC/2021/002", FacultyID: "f", DepartmentID: "d",
				Role: user.RoleLecturer, Password: "pwd",
			},
			wantFld: "matric_number",
		},
		{
			name: "admin with level",
			nu: user.NewUser{
				FirstName: "A", LastName: "B", Email: "a@b.test",
				Level: 100, FacultyID: "f", DepartmentID: "d",
				Role: user.RoleAdmin, Password: "pwd",
			},
			wantFld: "level",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(validate, svc)
			require.Error(t, err)
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "want validator.ValidationErrors, got %T", err)
			found := false
			for _, fe := range vErrs {
				if fe.Field() == tt.wantFld {
					found = true
				}
			}
			assert.True(t, found, "no error reported on %q: %v", tt.wantFld, err)
		})
	}
}

func TestService_ResolveIdentity(t *testing.T) {
	svc, validate := setup(t)
	ctx := context.Background()

	nu := newStudent("resolve@school.test", "CSC/2021/070")
	require.NoError(t, nu.Validate(validate, svc))
	created, err := svc.Create(ctx, nu)
	require.NoError(t, err)

	tests := []struct {
		name       string
		credential string
		wantErr    error
	}{
		{name: "by email", credential: "resolve@school.test"},
		{name: "by matric number", credential: "CSC/2021/070"},
		{name: "unknown email", credential: "nobody@school.test", wantErr: user.ErrNotFound},
		{name: "unknown matric", credential: "CSC/1999/000", wantErr: user.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svc.ResolveIdentity(ctx, tt.credential)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, created.ID, usr.ID)
		})
	}
}

func TestService_Authenticate(t *testing.T) {
	svc, validate := setup(t)
	ctx := context.Background()

	nu := newLecturer("auth@school.test")
	require.NoError(t, nu.Validate(validate, svc))
	created, err := svc.Create(ctx, nu)
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "auth@school.test", "nope")
		assert.Equal(t, user.ErrInvalidCredentials, err)
	})

	t.Run("unknown credential", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "ghost@school.test", "s3cret!")
		assert.Equal(t, user.ErrInvalidCredentials, err)
	})

	t.Run("success updates last login", func(t *testing.T) {
		usr, err := svc.Authenticate(ctx, "auth@school.test", "s3cret!")
		require.NoError(t, err)
		assert.Equal(t, created.ID, usr.ID)
		assert.False(t, usr.LastLogin.IsZero())
	})

	t.Run("deactivated account", func(t *testing.T) {
		inactive := false
		uu := user.UpdateUser{IsActive: &inactive}
		require.NoError(t, uu.Validate(validate, created, svc))
		_, err := svc.Update(ctx, created.ID, uu)
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, "auth@school.test", "s3cret!")
		assert.Equal(t, user.ErrAccountDeactivated, err)
	})
}
