package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	matricRequiredTag  = "matric_required"
	matricRequiredText = "matric number is required for students"

	levelRequiredTag  = "level_required"
	levelRequiredText = "level is required for students"

	matricForbiddenTag  = "matric_forbidden"
	matricForbiddenText = "only students may have a matric number"

	levelForbiddenTag  = "level_forbidden"
	levelForbiddenText = "only students may have a level"
)

// Custom Validators

// roleValidation checks that the provided role is one of AllRoles.
func roleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).Valid()
}

// newUserStructValidation enforces role-dependent field presence:
// a Student requires a matric number and a level; any other role must have
// neither. Runs before persistence on every create.
func newUserStructValidation(sl validator.StructLevel) {
	nu, ok := sl.Current().Interface().(NewUser)
	if !ok {
		return
	}
	switch nu.Role {
	case RoleStudent:
		if nu.MatricNumber == "" {
			sl.ReportError(nu.MatricNumber, "matric_number", "MatricNumber", matricRequiredTag, "")
		}
		if nu.Level == 0 {
			sl.ReportError(nu.Level, "level", "Level", levelRequiredTag, "")
		}
	case RoleLecturer, RoleAdmin:
		if nu.MatricNumber != "" {
			sl.ReportError(nu.MatricNumber, "matric_number", "MatricNumber", matricForbiddenTag, "")
		}
		if nu.Level != 0 {
			sl.ReportError(nu.Level, "level", "Level", levelForbiddenTag, "")
		}
	}
}

// validateRoleFields applies the same role-dependent presence rules on update,
// where the role itself is already fixed.
func validateRoleFields(role Role, matricNumber string, level int) error {
	var flds []core.FieldError
	switch role {
	case RoleStudent:
		if matricNumber == "" {
			flds = append(flds, core.FieldError{Field: "matric_number", Error: matricRequiredText})
		}
		if level == 0 {
			flds = append(flds, core.FieldError{Field: "level", Error: levelRequiredText})
		}
	case RoleLecturer, RoleAdmin:
		if matricNumber != "" {
			flds = append(flds, core.FieldError{Field: "matric_number", Error: matricForbiddenText})
		}
		if level != 0 {
			flds = append(flds, core.FieldError{Field: "level", Error: levelForbiddenText})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}
