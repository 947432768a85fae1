package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/merge"
)

const pqUniqueViolation = "23505"

type mergeRepository struct {
	db *sqlx.DB
}

var _ merge.Repository = (*mergeRepository)(nil) // interface compliance check

func NewMergeRepository(db *sqlx.DB) merge.Repository {
	return &mergeRepository{db: db}
}

type mergeRow struct {
	ID          string    `db:"id"`
	SourceYear  int       `db:"source_year"`
	SourceClass string    `db:"source_class"`
	HostYear    int       `db:"host_year"`
	HostClass   string    `db:"host_class"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r mergeRow) toMerge() merge.ClassMerge {
	return merge.ClassMerge{
		ID:        r.ID,
		Source:    core.ClassKey{Year: r.SourceYear, Class: r.SourceClass},
		Host:      core.ClassKey{Year: r.HostYear, Class: r.HostClass},
		CreatedAt: r.CreatedAt,
	}
}

// CreateMerge leans on the unique (source_year, source_class) index for the
// check-and-insert: a conflicting insert fails atomically and maps to
// merge.ErrSourceMerged.
func (repo *mergeRepository) CreateMerge(m merge.ClassMerge) (merge.ClassMerge, error) {
	_, err := repo.db.Exec(
		`INSERT INTO class_merge (id, source_year, source_class, host_year, host_class, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.Source.Year, m.Source.Class, m.Host.Year, m.Host.Class, m.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return merge.ClassMerge{}, merge.ErrSourceMerged
		}
		return merge.ClassMerge{}, errors.Wrap(err, "inserting merge")
	}
	return m, nil
}

func (repo *mergeRepository) DeleteMerge(id string) (merge.ClassMerge, error) {
	var row mergeRow
	err := repo.db.Get(&row, `DELETE FROM class_merge WHERE id = $1 RETURNING *`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return merge.ClassMerge{}, merge.ErrNotFound
		}
		return merge.ClassMerge{}, errors.Wrap(err, "deleting merge")
	}
	return row.toMerge(), nil
}

func (repo *mergeRepository) GetMergeBySource(source core.ClassKey) (merge.ClassMerge, error) {
	var row mergeRow
	err := repo.db.Get(
		&row,
		`SELECT * FROM class_merge WHERE source_year = $1 AND source_class = $2`,
		source.Year, source.Class,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return merge.ClassMerge{}, merge.ErrNotFound
		}
		return merge.ClassMerge{}, errors.Wrap(err, "getting merge")
	}
	return row.toMerge(), nil
}

func (repo *mergeRepository) MergesByHost(host core.ClassKey) ([]merge.ClassMerge, error) {
	var rows []mergeRow
	err := repo.db.Select(
		&rows,
		`SELECT * FROM class_merge WHERE host_year = $1 AND host_class = $2 ORDER BY created_at`,
		host.Year, host.Class,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying merges")
	}
	return toMerges(rows), nil
}

func (repo *mergeRepository) QueryAllMerges() ([]merge.ClassMerge, error) {
	var rows []mergeRow
	err := repo.db.Select(&rows, `SELECT * FROM class_merge ORDER BY created_at`)
	if err != nil {
		return nil, errors.Wrap(err, "querying merges")
	}
	return toMerges(rows), nil
}

func (repo *mergeRepository) ClearMerges() ([]merge.ClassMerge, error) {
	var rows []mergeRow
	err := repo.db.Select(&rows, `DELETE FROM class_merge RETURNING *`)
	if err != nil {
		return nil, errors.Wrap(err, "clearing merges")
	}
	return toMerges(rows), nil
}

func toMerges(rows []mergeRow) []merge.ClassMerge {
	merges := make([]merge.ClassMerge, 0, len(rows))
	for _, r := range rows {
		merges = append(merges, r.toMerge())
	}
	return merges
}
