package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Kopptechy/student-pickup-live-2025/core/family"
)

type familyRepository struct {
	db *sqlx.DB
}

var _ family.Repository = (*familyRepository)(nil) // interface compliance check

func NewFamilyRepository(db *sqlx.DB) family.Repository {
	return &familyRepository{db: db}
}

func (repo *familyRepository) CreateFamily(f family.Family) (family.Family, error) {
	_, err := repo.db.Exec(
		`INSERT INTO family (id, name, code, created_at) VALUES ($1, $2, $3, $4)`,
		f.ID, f.Name, f.Code, f.CreatedAt,
	)
	if err != nil {
		return family.Family{}, errors.Wrap(err, "inserting family")
	}
	return f, nil
}

func (repo *familyRepository) GetFamilyByID(id string) (family.Family, error) {
	var f family.Family
	err := repo.db.Get(&f, `SELECT * FROM family WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return family.Family{}, family.ErrNotFound
		}
		return family.Family{}, errors.Wrap(err, "getting family")
	}
	return f, nil
}

func (repo *familyRepository) GetFamilyByCode(code string) (family.Family, error) {
	var f family.Family
	err := repo.db.Get(&f, `SELECT * FROM family WHERE code = $1`, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return family.Family{}, family.ErrNotFound
		}
		return family.Family{}, errors.Wrap(err, "getting family")
	}
	return f, nil
}

type dailyCodeRow struct {
	Code       string    `db:"code"`
	FamilyID   string    `db:"family_id"`
	StudentIDs []byte    `db:"student_ids"`
	ExpiresAt  time.Time `db:"expires_at"`
}

func (r dailyCodeRow) toDailyCode() (family.DailyCode, error) {
	c := family.DailyCode{
		Code:      r.Code,
		FamilyID:  r.FamilyID,
		ExpiresAt: r.ExpiresAt,
	}
	if err := json.Unmarshal(r.StudentIDs, &c.StudentIDs); err != nil {
		return family.DailyCode{}, errors.Wrap(err, "decoding student ids")
	}
	return c, nil
}

func (repo *familyRepository) CreateDailyCode(c family.DailyCode) (family.DailyCode, error) {
	ids, err := json.Marshal(c.StudentIDs)
	if err != nil {
		return family.DailyCode{}, errors.Wrap(err, "encoding student ids")
	}
	_, err = repo.db.Exec(
		`INSERT INTO daily_code (code, family_id, student_ids, expires_at) VALUES ($1, $2, $3, $4)`,
		c.Code, c.FamilyID, ids, c.ExpiresAt,
	)
	if err != nil {
		return family.DailyCode{}, errors.Wrap(err, "inserting daily code")
	}
	return c, nil
}

func (repo *familyRepository) GetDailyCode(code string) (family.DailyCode, error) {
	var row dailyCodeRow
	err := repo.db.Get(&row, `SELECT * FROM daily_code WHERE code = $1`, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return family.DailyCode{}, family.ErrCodeNotFound
		}
		return family.DailyCode{}, errors.Wrap(err, "getting daily code")
	}
	return row.toDailyCode()
}
