package school

import (
	"context"

	"github.com/pkg/errors"

	"github.com/kaithabhanuteja/StudentManagement/core/user"
)

// ResolveRole is the single authority on which dashboard an account gets:
// superuser first, then a teacher linked to the account, then a linked student.
// The stored Profile is brought in line with the result.
func (svc *Service) ResolveRole(ctx context.Context, usr user.User) (Role, error) {
	role, err := svc.resolveRole(ctx, usr)
	if err != nil {
		return RoleNone, err
	}
	if role != RoleNone {
		if err = svc.reconcileProfile(ctx, usr, role); err != nil {
			return RoleNone, err
		}
	}
	return role, nil
}

func (svc *Service) resolveRole(ctx context.Context, usr user.User) (Role, error) {
	if usr.IsSuperuser {
		return RoleAdmin, nil
	}

	_, err := svc.repo.GetTeacherByUserID(ctx, usr.ID)
	switch err {
	case nil:
		return RoleTeacher, nil
	case ErrTeacherNotFound:
	default:
		return RoleNone, errors.Wrap(err, "finding teacher by user")
	}

	_, err = svc.repo.GetStudentByUserID(ctx, usr.ID)
	switch err {
	case nil:
		return RoleStudent, nil
	case ErrStudentNotFound:
	default:
		return RoleNone, errors.Wrap(err, "finding student by user")
	}
	return RoleNone, nil
}

func (svc *Service) reconcileProfile(ctx context.Context, usr user.User, role Role) error {
	profile, err := svc.repo.GetProfileByUserID(ctx, usr.ID)
	switch err {
	case nil:
		if profile.Role == role {
			return nil
		}
	case ErrProfileNotFound:
		profile = Profile{UserID: usr.ID}
	default:
		return errors.Wrap(err, "finding profile")
	}

	profile.Role = role
	if _, err = svc.repo.SaveProfile(ctx, profile); err != nil {
		return errors.Wrap(err, "saving profile")
	}
	return nil
}

// teacherOf returns the teacher linked to usr, or ErrNoRole.
func (svc *Service) teacherOf(ctx context.Context, usr user.User) (Teacher, error) {
	t, err := svc.repo.GetTeacherByUserID(ctx, usr.ID)
	if err != nil {
		if err == ErrTeacherNotFound {
			return Teacher{}, ErrNoRole
		}
		return Teacher{}, errors.Wrap(err, "finding teacher by user")
	}
	return t, nil
}

// studentOf returns the student linked to usr, or ErrNoRole.
func (svc *Service) studentOf(ctx context.Context, usr user.User) (Student, error) {
	s, err := svc.repo.GetStudentByUserID(ctx, usr.ID)
	if err != nil {
		if err == ErrStudentNotFound {
			return Student{}, ErrNoRole
		}
		return Student{}, errors.Wrap(err, "finding student by user")
	}
	return s, nil
}
