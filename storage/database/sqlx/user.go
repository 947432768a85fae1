package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Kopptechy/student-pickup-live-2025/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	Role         string         `db:"role"`
	IsApproved   bool           `db:"is_approved"`
	FamilyID     sql.NullString `db:"family_id"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	LastLogin    sql.NullTime   `db:"last_login"`
}

func (r userRow) toUser() user.User {
	u := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         r.Role,
		IsApproved:   r.IsApproved,
		FamilyID:     r.FamilyID.String,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
	if r.LastLogin.Valid {
		u.LastLogin = r.LastLogin.Time
	}
	return u
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	familyID := sql.NullString{String: usr.FamilyID, Valid: usr.FamilyID != ""}
	_, err := repo.db.Exec(
		`INSERT INTO app_user (id, name, email, role, is_approved, family_id, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		usr.ID, usr.Name, usr.Email, usr.Role, usr.IsApproved, familyID, usr.PasswordHash, usr.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	return repo.getUser(`SELECT * FROM app_user WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.getUser(`SELECT * FROM app_user WHERE email = $1`, email)
}

func (repo *userRepository) getUser(query string, arg interface{}) (user.User, error) {
	var row userRow
	err := repo.db.Get(&row, query, arg)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) PendingUsers() ([]user.User, error) {
	var rows []userRow
	err := repo.db.Select(&rows, `SELECT * FROM app_user WHERE NOT is_approved ORDER BY created_at`)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo *userRepository) ApproveUser(id string) (user.User, error) {
	var row userRow
	err := repo.db.Get(&row, `UPDATE app_user SET is_approved = true WHERE id = $1 RETURNING *`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "approving user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) SetLastLogin(id string, at time.Time) (user.User, error) {
	var row userRow
	err := repo.db.Get(&row, `UPDATE app_user SET last_login = $1 WHERE id = $2 RETURNING *`, at, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return row.toUser(), nil
}

type inviteRow struct {
	Code       string    `db:"code"`
	Email      string    `db:"email"`
	Name       string    `db:"name"`
	Role       string    `db:"role"`
	FamilyID   string    `db:"family_id"`
	StudentIDs []byte    `db:"student_ids"`
	IsUsed     bool      `db:"is_used"`
	ExpiresAt  time.Time `db:"expires_at"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r inviteRow) toInvite() (user.Invite, error) {
	inv := user.Invite{
		Code:      r.Code,
		Email:     r.Email,
		Name:      r.Name,
		Role:      r.Role,
		FamilyID:  r.FamilyID,
		IsUsed:    r.IsUsed,
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
	}
	if err := json.Unmarshal(r.StudentIDs, &inv.StudentIDs); err != nil {
		return user.Invite{}, errors.Wrap(err, "decoding student ids")
	}
	return inv, nil
}

func (repo *userRepository) CreateInvite(inv user.Invite) (user.Invite, error) {
	ids, err := json.Marshal(inv.StudentIDs)
	if err != nil {
		return user.Invite{}, errors.Wrap(err, "encoding student ids")
	}
	_, err = repo.db.Exec(
		`INSERT INTO invite (code, email, name, role, family_id, student_ids, is_used, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		inv.Code, inv.Email, inv.Name, inv.Role, inv.FamilyID, ids, inv.IsUsed, inv.ExpiresAt, inv.CreatedAt,
	)
	if err != nil {
		return user.Invite{}, errors.Wrap(err, "inserting invite")
	}
	return inv, nil
}

func (repo *userRepository) GetInviteByCode(code string) (user.Invite, error) {
	var row inviteRow
	err := repo.db.Get(&row, `SELECT * FROM invite WHERE code = $1`, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.Invite{}, user.ErrInviteNotFound
		}
		return user.Invite{}, errors.Wrap(err, "getting invite")
	}
	return row.toInvite()
}

func (repo *userRepository) MarkInviteUsed(code string) (user.Invite, error) {
	var row inviteRow
	err := repo.db.Get(&row, `UPDATE invite SET is_used = true WHERE code = $1 RETURNING *`, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.Invite{}, user.ErrInviteNotFound
		}
		return user.Invite{}, errors.Wrap(err, "updating invite")
	}
	return row.toInvite()
}
