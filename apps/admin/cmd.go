package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/academic"
	"github.com/trezcool/mahudhurio/core/enrollment"
	"github.com/trezcool/mahudhurio/core/fingerprint"
	"github.com/trezcool/mahudhurio/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db          *sqlx.DB
	conf        *core.Config
	validate    *validator.Validate
	usrSvc      *user.Service
	fpSvc       *fingerprint.Service
	academicSvc *academic.Service
	enrollSvc   *enrollment.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate                                             - apply pending database migrations")
	fmt.Println("  adduser -email EMAIL -first NAME -last NAME -role ROLE")
	fmt.Println("          [-other NAME] [-matric MATRIC] [-level LEVEL]")
	fmt.Println("          -faculty ID -department ID                  - create a user; the password is prompted next")
	fmt.Println("  setsemester -name First|Second -session YYYY/YYYY   - set the current semester, creating it if needed")
	fmt.Println("  resetpassword -credential EMAIL|MATRIC              - reset a user's password")
	fmt.Println("  unenrollfingerprint -credential EMAIL|MATRIC        - release a user's fingerprint slot")
	fmt.Println("  unenrollcourse -credential EMAIL|MATRIC -code CODE  - remove a student's course enrollment for the current semester")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserFirst := addUserCmd.String("first", "", "The user's first name.")
	addUserLast := addUserCmd.String("last", "", "The user's last name.")
	addUserOther := addUserCmd.String("other", "", "The user's other name.")
	addUserRole := addUserCmd.String("role", "", "One of: student, lecturer, admin.")
	addUserMatric := addUserCmd.String("matric", "", "The student's matric number.")
	addUserLevel := addUserCmd.Int("level", 0, "The student's level (100, 200, ...).")
	addUserFaculty := addUserCmd.String("faculty", "", "The user's faculty ID.")
	addUserDept := addUserCmd.String("department", "", "The user's department ID.")

	setSemesterCmd := flag.NewFlagSet("setsemester", flag.ExitOnError)
	setSemesterName := setSemesterCmd.String("name", "", "The semester name: First or Second.")
	setSemesterSession := setSemesterCmd.String("session", "", "The academic session, e.g. 2025/2026.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordCred := resetPasswordCmd.String("credential", "", "The user's email or matric number. The password will be prompted next.")

	unenrollCmd := flag.NewFlagSet("unenrollfingerprint", flag.ExitOnError)
	unenrollCred := unenrollCmd.String("credential", "", "The user's email or matric number.")

	unenrollCourseCmd := flag.NewFlagSet("unenrollcourse", flag.ExitOnError)
	unenrollCourseCred := unenrollCourseCmd.String("credential", "", "The student's email or matric number.")
	unenrollCourseCode := unenrollCourseCmd.String("code", "", "The course code.")

	switch args[1] {
	case "migrate":
		return cli.migrate()
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" || *addUserFirst == "" || *addUserLast == "" || *addUserRole == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(user.Role(*addUserRole) != user.RoleStudent /* required */)
		if err != nil {
			return err
		}
		return cli.addUser(user.NewUser{
			FirstName:    *addUserFirst,
			LastName:     *addUserLast,
			OtherName:    *addUserOther,
			Email:        *addUserEmail,
			MatricNumber: *addUserMatric,
			Level:        *addUserLevel,
			FacultyID:    *addUserFaculty,
			DepartmentID: *addUserDept,
			Role:         user.Role(*addUserRole),
			Password:     pwd,
		})
	case "setsemester":
		if err := setSemesterCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setSemesterName == "" || *setSemesterSession == "" {
			setSemesterCmd.Usage()
			return errHelp
		}
		return cli.setSemester(*setSemesterName, *setSemesterSession)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordCred == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(true /* required */)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordCred, pwd)
	case "unenrollfingerprint":
		if err := unenrollCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *unenrollCred == "" {
			unenrollCmd.Usage()
			return errHelp
		}
		return cli.unenrollFingerprint(*unenrollCred)
	case "unenrollcourse":
		if err := unenrollCourseCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *unenrollCourseCred == "" || *unenrollCourseCode == "" {
			unenrollCourseCmd.Usage()
			return errHelp
		}
		return cli.unenrollCourse(*unenrollCourseCred, *unenrollCourseCode)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword(required bool) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if required && len(pwd) == 0 {
		return "", errors.New("a password is required")
	}
	return string(pwd), nil
}
