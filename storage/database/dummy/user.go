package dummydb

import (
	"sort"
	"time"

	"github.com/Kopptechy/student-pickup-live-2025/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, u := range repo.db.table {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.table {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) PendingUsers() ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0)
	for _, usr := range repo.db.table {
		if !usr.IsApproved {
			users = append(users, *usr)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (repo *userRepository) ApproveUser(id string) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr, ok := repo.db.table[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.IsApproved = true
	return *usr, nil
}

func (repo *userRepository) SetLastLogin(id string, at time.Time) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr, ok := repo.db.table[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.LastLogin = at
	return *usr, nil
}

func (repo *userRepository) CreateInvite(inv user.Invite) (user.Invite, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.invites[inv.Code] = &inv
	return inv, nil
}

func (repo *userRepository) GetInviteByCode(code string) (user.Invite, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if inv, ok := repo.db.invites[code]; ok {
		return *inv, nil
	}
	return user.Invite{}, user.ErrInviteNotFound
}

func (repo *userRepository) MarkInviteUsed(code string) (user.Invite, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	inv, ok := repo.db.invites[code]
	if !ok {
		return user.Invite{}, user.ErrInviteNotFound
	}
	inv.IsUsed = true
	return *inv, nil
}
