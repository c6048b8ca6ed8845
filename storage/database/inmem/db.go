package inmemdb

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/school"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
)

type (
	// DB is a mutex guarded set of tables mirroring the Postgres schema and its constraints.
	DB struct {
		mutex   sync.RWMutex
		txMutex sync.Mutex
		t       *tables
	}

	tables struct {
		seq        map[string]int64
		users      map[int64]user.User
		perms      map[int64][]string
		students   map[int64]school.Student
		teachers   map[int64]school.Teacher
		attendance map[int64]school.Attendance
		profiles   map[int64]school.Profile
	}

	txKey struct{}
)

var (
	_ core.Transactor = (*DB)(nil)

	errUserLinked = errors.New("account already linked to another record")
)

func Open() *DB {
	return &DB{t: newTables()}
}

func newTables() *tables {
	return &tables{
		seq:        make(map[string]int64),
		users:      make(map[int64]user.User),
		perms:      make(map[int64][]string),
		students:   make(map[int64]school.Student),
		teachers:   make(map[int64]school.Teacher),
		attendance: make(map[int64]school.Attendance),
		profiles:   make(map[int64]school.Profile),
	}
}

func (t *tables) nextID(table string) int64 {
	t.seq[table]++
	return t.seq[table]
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.seq {
		c.seq[k] = v
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.perms {
		c.perms[k] = append([]string(nil), v...)
	}
	for k, v := range t.students {
		c.students[k] = v
	}
	for k, v := range t.teachers {
		c.teachers[k] = v
	}
	for k, v := range t.attendance {
		c.attendance[k] = v
	}
	for k, v := range t.profiles {
		c.profiles[k] = v
	}
	return c
}

// WithinTx restores every table to its previous state when fn fails or panics.
// Transactions are serialized; they are not isolated from concurrent non-transactional calls.
// Nested calls join the outer transaction.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	db.txMutex.Lock()
	defer db.txMutex.Unlock()

	db.mutex.RLock()
	snapshot := db.t.clone()
	db.mutex.RUnlock()

	rollback := func() {
		db.mutex.Lock()
		db.t = snapshot
		db.mutex.Unlock()
	}
	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, db)); err != nil {
		rollback()
	}
	return err
}

// Reset drops all the data.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.t = newTables()
}

// PingContext always succeeds.
func (db *DB) PingContext(context.Context) error { return nil }
