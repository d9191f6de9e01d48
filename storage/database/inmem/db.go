// Package inmemdb provides in-memory repositories for tests and local
// development; no Postgres required.
package inmemdb

import (
	"sync"

	"github.com/gongbuapp/gongbu/core/session"
	"github.com/gongbuapp/gongbu/core/user"
)

type (
	DB struct {
		user    *userTable
		session *sessionTable
	}

	userTable struct {
		table map[string]*user.User
		order []string // insertion order; keeps query results reproducible
		mutex sync.RWMutex
	}

	sessionTable struct {
		table map[string]*session.Session
		order []string
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:    &userTable{table: make(map[string]*user.User)},
		session: &sessionTable{table: make(map[string]*session.Session)},
	}
}
