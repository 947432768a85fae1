package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/pickup"
)

type pickupRepository struct {
	db *sqlx.DB
}

var _ pickup.Repository = (*pickupRepository)(nil) // interface compliance check

func NewPickupRepository(db *sqlx.DB) pickup.Repository {
	return &pickupRepository{db: db}
}

type pickupRow struct {
	ID          string         `db:"id"`
	StudentID   sql.NullString `db:"student_id"`
	StudentName string         `db:"student_name"`
	Year        int            `db:"year"`
	Class       string         `db:"class"`
	Status      string         `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	AckedAt     sql.NullTime   `db:"acked_at"`
}

func (r pickupRow) toPickup() pickup.Pickup {
	p := pickup.Pickup{
		ID:          r.ID,
		StudentID:   r.StudentID.String,
		StudentName: r.StudentName,
		Year:        r.Year,
		Class:       r.Class,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
	}
	if r.AckedAt.Valid {
		p.AckedAt = r.AckedAt.Time
	}
	return p
}

func (repo *pickupRepository) CreatePickup(p pickup.Pickup) (pickup.Pickup, error) {
	studentID := sql.NullString{String: p.StudentID, Valid: p.StudentID != ""}
	_, err := repo.db.Exec(
		`INSERT INTO pickup (id, student_id, student_name, year, class, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, studentID, p.StudentName, p.Year, p.Class, p.Status, p.CreatedAt,
	)
	if err != nil {
		return pickup.Pickup{}, errors.Wrap(err, "inserting pickup")
	}
	return p, nil
}

func (repo *pickupRepository) GetPickupByID(id string) (pickup.Pickup, error) {
	var row pickupRow
	err := repo.db.Get(&row, `SELECT * FROM pickup WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return pickup.Pickup{}, pickup.ErrNotFound
		}
		return pickup.Pickup{}, errors.Wrap(err, "getting pickup")
	}
	return row.toPickup(), nil
}

func (repo *pickupRepository) PendingPickups() ([]pickup.Pickup, error) {
	var rows []pickupRow
	err := repo.db.Select(&rows, `SELECT * FROM pickup WHERE status = $1 ORDER BY created_at`, pickup.StatusPending)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending pickups")
	}
	return toPickups(rows), nil
}

func (repo *pickupRepository) PendingPickupsByClass(key core.ClassKey) ([]pickup.Pickup, error) {
	var rows []pickupRow
	err := repo.db.Select(
		&rows,
		`SELECT * FROM pickup WHERE status = $1 AND year = $2 AND class = $3 ORDER BY created_at`,
		pickup.StatusPending, key.Year, key.Class,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending pickups")
	}
	return toPickups(rows), nil
}

// AcknowledgePickup relies on the conditional UPDATE for atomicity: only a
// still-pending row transitions, and the follow-up read disambiguates
// "unknown id" from "already acknowledged".
func (repo *pickupRepository) AcknowledgePickup(id string, at time.Time) (pickup.Pickup, error) {
	var row pickupRow
	err := repo.db.Get(
		&row,
		`UPDATE pickup SET status = $1, acked_at = $2 WHERE id = $3 AND status = $4 RETURNING *`,
		pickup.StatusAcknowledged, at, id, pickup.StatusPending,
	)
	if err == nil {
		return row.toPickup(), nil
	}
	if err != sql.ErrNoRows {
		return pickup.Pickup{}, errors.Wrap(err, "acknowledging pickup")
	}
	p, err := repo.GetPickupByID(id)
	if err != nil {
		return pickup.Pickup{}, err
	}
	return p, pickup.ErrAlreadyAcked
}

func (repo *pickupRepository) DeleteAcknowledgedBefore(cutoff time.Time) (int, error) {
	res, err := repo.db.Exec(
		`DELETE FROM pickup WHERE status = $1 AND acked_at < $2`,
		pickup.StatusAcknowledged, cutoff,
	)
	if err != nil {
		return 0, errors.Wrap(err, "purging pickups")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "purging pickups")
	}
	return int(n), nil
}

func toPickups(rows []pickupRow) []pickup.Pickup {
	pickups := make([]pickup.Pickup, 0, len(rows))
	for _, r := range rows {
		pickups = append(pickups, r.toPickup())
	}
	return pickups
}
