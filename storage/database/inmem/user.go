package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/kaithabhanuteja/StudentManagement/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) withPerms(usr user.User) user.User {
	usr.Permissions = append([]string(nil), repo.db.t.perms[usr.ID]...)
	return usr
}

func (repo *userRepository) CheckUniqueness(_ context.Context, username, email string, excludeID int64) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.t.users {
		if usr.ID == excludeID {
			continue
		}
		if usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && strings.EqualFold(usr.Email, email) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, u := range repo.db.t.users {
		if u.Username == usr.Username {
			return user.User{}, user.ErrUsernameExists
		}
		if usr.Email != "" && strings.EqualFold(u.Email, usr.Email) {
			return user.User{}, user.ErrEmailExists
		}
	}
	usr.ID = repo.db.t.nextID("users")
	usr.Permissions = nil
	repo.db.t.users[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id int64) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.t.users[id]; ok {
		return repo.withPerms(usr), nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsernameOrEmail(_ context.Context, username string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.t.users {
		if usr.Username == username {
			return repo.withPerms(usr), nil
		}
	}
	for _, usr := range repo.db.t.users {
		if usr.Email != "" && strings.EqualFold(usr.Email, username) {
			return repo.withPerms(usr), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origUsr, ok := repo.db.t.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	for _, u := range repo.db.t.users {
		if u.ID == usr.ID {
			continue
		}
		if u.Username == usr.Username {
			return user.User{}, user.ErrUsernameExists
		}
		if usr.Email != "" && strings.EqualFold(u.Email, usr.Email) {
			return user.User{}, user.ErrEmailExists
		}
	}
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	origUsr.Username = usr.Username
	origUsr.Email = usr.Email
	origUsr.IsSuperuser = usr.IsSuperuser
	origUsr.IsActive = usr.IsActive
	origUsr.LastLogin = usr.LastLogin

	repo.db.t.users[usr.ID] = origUsr
	return repo.withPerms(origUsr), nil
}

func (repo *userRepository) GrantPermissions(_ context.Context, userID int64, perms ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.t.users[userID]; !ok {
		return user.ErrNotFound
	}
	granted := repo.db.t.perms[userID]
	for _, perm := range perms {
		idx := sort.SearchStrings(granted, perm)
		if idx < len(granted) && granted[idx] == perm {
			continue
		}
		granted = append(granted, perm)
		sort.Strings(granted)
	}
	repo.db.t.perms[userID] = granted
	return nil
}
