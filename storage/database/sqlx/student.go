package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Kopptechy/student-pickup-live-2025/core/student"
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

type studentRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Year      int            `db:"year"`
	Class     string         `db:"class"`
	FamilyID  sql.NullString `db:"family_id"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r studentRow) toStudent() student.Student {
	return student.Student{
		ID:        r.ID,
		Name:      r.Name,
		Year:      r.Year,
		Class:     r.Class,
		FamilyID:  r.FamilyID.String,
		CreatedAt: r.CreatedAt,
	}
}

func (repo *studentRepository) CreateStudent(s student.Student) (student.Student, error) {
	familyID := sql.NullString{String: s.FamilyID, Valid: s.FamilyID != ""}
	_, err := repo.db.Exec(
		`INSERT INTO student (id, name, year, class, family_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.Name, s.Year, s.Class, familyID, s.CreatedAt,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo *studentRepository) QueryAllStudents() ([]student.Student, error) {
	var rows []studentRow
	err := repo.db.Select(&rows, `SELECT * FROM student ORDER BY year, class, name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return toStudents(rows), nil
}

func (repo *studentRepository) StudentsByYear(year int) ([]student.Student, error) {
	var rows []studentRow
	err := repo.db.Select(&rows, `SELECT * FROM student WHERE year = $1 ORDER BY class, name`, year)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return toStudents(rows), nil
}

func (repo *studentRepository) StudentsByFamily(familyID string) ([]student.Student, error) {
	var rows []studentRow
	err := repo.db.Select(&rows, `SELECT * FROM student WHERE family_id = $1 ORDER BY name`, familyID)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return toStudents(rows), nil
}

func (repo *studentRepository) GetStudentByID(id string) (student.Student, error) {
	var row studentRow
	err := repo.db.Get(&row, `SELECT * FROM student WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) SetStudentFamily(id, familyID string) (student.Student, error) {
	fam := sql.NullString{String: familyID, Valid: familyID != ""}
	var row studentRow
	err := repo.db.Get(&row, `UPDATE student SET family_id = $1 WHERE id = $2 RETURNING *`, fam, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	return row.toStudent(), nil
}

func toStudents(rows []studentRow) []student.Student {
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.toStudent())
	}
	return students
}
