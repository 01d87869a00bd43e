package fingerprint_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/fingerprint"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/storage/database/inmem"
)

type fixture struct {
	svc    *fingerprint.Service
	usrSvc *user.Service
	conf   *core.Config
}

func setup(t *testing.T) fixture {
	t.Helper()

	db, err := inmem.Open()
	require.NoError(t, err)

	conf := core.NewTestConfig()
	usrSvc := user.NewService(inmem.NewUserRepository(db), conf)
	svc := fingerprint.NewService(inmem.NewFingerprintRepository(db), usrSvc, conf)
	return fixture{svc: svc, usrSvc: usrSvc, conf: conf}
}

func (f fixture) createUser(t *testing.T, email string, role user.Role) user.User {
	t.Helper()

	nu := user.NewUser{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		FacultyID:    "fac1",
		DepartmentID: "dep1",
		Role:         role,
		Password:     "pwd",
	}
	if role == user.RoleStudent {
		nu.MatricNumber = "CSC/2021/" + email[:3]
		nu.Level = 200
	}
	usr, err := f.usrSvc.Create(context.Background(), nu)
	require.NoError(t, err)
	return usr
}

func TestService_Enroll(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	base := f.conf.Fingerprint.BaseSlot

	a := f.createUser(t, "aaa@school.test", user.RoleStudent)
	b := f.createUser(t, "bbb@school.test", user.RoleLecturer)

	mA, err := f.svc.Enroll(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, base, mA.SlotID)

	mB, err := f.svc.Enroll(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, base+1, mB.SlotID)

	t.Run("enrolling twice is rejected", func(t *testing.T) {
		_, err := f.svc.Enroll(ctx, a.ID)
		assert.Equal(t, fingerprint.ErrUserHasSlot, err)
	})

	t.Run("released slot is reused first", func(t *testing.T) {
		require.NoError(t, f.svc.Unenroll(ctx, a.ID))

		c := f.createUser(t, "ccc@school.test", user.RoleStudent)
		mC, err := f.svc.Enroll(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, base, mC.SlotID)
	})
}

func TestService_Enroll_exhaustion(t *testing.T) {
	f := setup(t)
	f.conf.Fingerprint.MaxSlots = 2
	ctx := context.Background()

	a := f.createUser(t, "one@school.test", user.RoleStudent)
	b := f.createUser(t, "two@school.test", user.RoleStudent)
	c := f.createUser(t, "thr@school.test", user.RoleStudent)

	_, err := f.svc.Enroll(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.svc.Enroll(ctx, b.ID)
	require.NoError(t, err)

	_, err = f.svc.Enroll(ctx, c.ID)
	assert.Equal(t, fingerprint.ErrSlotsExhausted, err)

	_, err = f.svc.NextFreeSlot(ctx)
	assert.Equal(t, fingerprint.ErrSlotsExhausted, err)
}

func TestService_Assign(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	base := f.conf.Fingerprint.BaseSlot

	a := f.createUser(t, "asg@school.test", user.RoleStudent)
	b := f.createUser(t, "bsg@school.test", user.RoleStudent)

	_, err := f.svc.Assign(ctx, a.ID, base+3)
	require.NoError(t, err)

	tests := []struct {
		name    string
		userID  string
		slotID  int
		wantErr error
	}{
		{name: "slot below range", userID: b.ID, slotID: base - 1, wantErr: fingerprint.ErrSlotOutOfRange},
		{name: "slot above range", userID: b.ID, slotID: base + f.conf.Fingerprint.MaxSlots, wantErr: fingerprint.ErrSlotOutOfRange},
		{name: "slot already taken", userID: b.ID, slotID: base + 3, wantErr: fingerprint.ErrSlotTaken},
		{name: "user already mapped", userID: a.ID, slotID: base + 4, wantErr: fingerprint.ErrUserHasSlot},
		{name: "unknown user", userID: "ghost", slotID: base + 5, wantErr: user.ErrNotFound},
		{name: "ok", userID: b.ID, slotID: base + 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := f.svc.Assign(ctx, tt.userID, tt.slotID)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.slotID, m.SlotID)
		})
	}
}

func TestService_LookupUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	student := f.createUser(t, "stu@school.test", user.RoleStudent)
	lect := f.createUser(t, "lec@school.test", user.RoleLecturer)

	mStu, err := f.svc.Enroll(ctx, student.ID)
	require.NoError(t, err)
	mLec, err := f.svc.Enroll(ctx, lect.ID)
	require.NoError(t, err)

	t.Run("resolves the mapped user", func(t *testing.T) {
		usr, err := f.svc.LookupUser(ctx, mStu.SlotID, user.RoleStudent)
		require.NoError(t, err)
		assert.Equal(t, student.ID, usr.ID)
	})

	t.Run("role mismatch", func(t *testing.T) {
		_, err := f.svc.LookupUser(ctx, mLec.SlotID, user.RoleStudent)
		assert.Equal(t, fingerprint.ErrWrongRole, err)
	})

	t.Run("unknown slot", func(t *testing.T) {
		_, err := f.svc.LookupUser(ctx, 9999, user.RoleStudent)
		assert.Equal(t, fingerprint.ErrNotFound, err)
	})

	t.Run("deactivated user", func(t *testing.T) {
		inactive := false
		_, err := f.usrSvc.Update(ctx, student.ID, user.UpdateUser{
			FirstName:    student.FirstName,
			LastName:     student.LastName,
			Email:        student.Email,
			MatricNumber: student.MatricNumber,
			Level:        student.Level,
			IsActive:     &inactive,
		})
		require.NoError(t, err)

		_, err = f.svc.LookupUser(ctx, mStu.SlotID, user.RoleStudent)
		assert.Equal(t, user.ErrAccountDeactivated, err)
	})
}

func TestService_Enrolled(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	usr := f.createUser(t, "enr@school.test", user.RoleStudent)

	enrolled, err := f.svc.Enrolled(ctx, usr.ID)
	require.NoError(t, err)
	assert.False(t, enrolled)

	_, err = f.svc.Enroll(ctx, usr.ID)
	require.NoError(t, err)

	enrolled, err = f.svc.Enrolled(ctx, usr.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)
}
