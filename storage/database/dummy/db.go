package dummydb

import (
	"sync"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/family"
	"github.com/Kopptechy/student-pickup-live-2025/core/merge"
	"github.com/Kopptechy/student-pickup-live-2025/core/pickup"
	"github.com/Kopptechy/student-pickup-live-2025/core/student"
	"github.com/Kopptechy/student-pickup-live-2025/core/user"
)

// DB is an in-memory stand-in for the real database: one mutex-guarded table
// per record type. Used by tests and DEV mode without postgres.
type (
	DB struct {
		pickup  *pickupTable
		merge   *mergeTable
		student *studentTable
		family  *familyTable
		user    *userTable
	}

	pickupTable struct {
		sync.RWMutex
		table map[string]*pickup.Pickup
		order []string // insertion order; snapshot queries preserve it
	}

	mergeTable struct {
		sync.RWMutex
		table    map[string]*merge.ClassMerge
		bySource map[core.ClassKey]string // merge-uniqueness index
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
		order []string
	}

	familyTable struct {
		sync.RWMutex
		table      map[string]*family.Family
		dailyCodes map[string]*family.DailyCode
	}

	userTable struct {
		sync.RWMutex
		table   map[string]*user.User
		invites map[string]*user.Invite
	}
)

func Open() (*DB, error) {
	db := &DB{
		pickup:  &pickupTable{table: make(map[string]*pickup.Pickup)},
		merge:   &mergeTable{table: make(map[string]*merge.ClassMerge), bySource: make(map[core.ClassKey]string)},
		student: &studentTable{table: make(map[string]*student.Student)},
		family:  &familyTable{table: make(map[string]*family.Family), dailyCodes: make(map[string]*family.DailyCode)},
		user:    &userTable{table: make(map[string]*user.User), invites: make(map[string]*user.Invite)},
	}
	return db, nil
}
