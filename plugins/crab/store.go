package crab

import (
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"
)

// ServerConfig is a server's game settings
type ServerConfig struct {
	Server       string `db:"server"`
	SpawnChannel string `db:"spawn_channel"`
	Enabled      bool   `db:"enabled"`
	Prefix       string `db:"prefix"`
}

const defaultPrefix = "!"

func newServerConfig(server string) ServerConfig {
	return ServerConfig{Server: server, Prefix: defaultPrefix}
}

// Store keeps accounts and server settings in the bot database
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.mkDB(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) mkDB() error {
	q := `create table if not exists crab_accounts (
		id integer primary key autoincrement,
		server text not null,
		user text not null,
		name text not null default '',
		coins integer not null default 0,
		level integer not null default 1,
		xp integer not null default 0,
		total_caught integer not null default 0,
		unique (server, user)
	);
	create table if not exists crab_inventory (
		server text not null,
		user text not null,
		item text not null,
		count integer not null,
		primary key (server, user, item)
	);
	create table if not exists crab_collection (
		server text not null,
		user text not null,
		creature text not null,
		count integer not null,
		primary key (server, user, creature)
	);
	create table if not exists crab_servers (
		server text primary key,
		spawn_channel text not null default '',
		enabled boolean not null default 0,
		prefix text not null default '!'
	);`
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("creating crab tables: %w", err)
	}
	return nil
}

type countRow struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

// GetAccount loads an account, or a fresh one if the user has not played
func (s *Store) GetAccount(server, user string) (Account, error) {
	a := NewAccount(server, user)
	err := s.db.Get(&a, `select id, server, user, name, coins, level, xp, total_caught
		from crab_accounts where server=? and user=?`, server, user)
	if errors.Is(err, sql.ErrNoRows) {
		return a, nil
	}
	if err != nil {
		return a, fmt.Errorf("loading account %s/%s: %w", server, user, err)
	}

	items := []countRow{}
	err = s.db.Select(&items, `select item as key, count from crab_inventory
		where server=? and user=?`, server, user)
	if err != nil {
		return a, fmt.Errorf("loading inventory: %w", err)
	}
	for _, r := range items {
		a.Inventory[r.Key] = r.Count
	}

	crabs := []countRow{}
	err = s.db.Select(&crabs, `select creature as key, count from crab_collection
		where server=? and user=?`, server, user)
	if err != nil {
		return a, fmt.Errorf("loading collection: %w", err)
	}
	for _, r := range crabs {
		a.Collection[r.Key] = r.Count
	}
	return a, nil
}

// PutAccount writes a whole account in one transaction
func (s *Store) PutAccount(a Account) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("saving account: %w", err)
	}
	if err := putAccount(tx, a); err != nil {
		tx.Rollback()
		return fmt.Errorf("saving account %s/%s: %w", a.Server, a.User, err)
	}
	return tx.Commit()
}

func putAccount(tx *sqlx.Tx, a Account) error {
	_, err := tx.NamedExec(`insert into crab_accounts
		(server, user, name, coins, level, xp, total_caught)
		values (:server, :user, :name, :coins, :level, :xp, :total_caught)
		on conflict(server, user) do update set
			name=excluded.name, coins=excluded.coins, level=excluded.level,
			xp=excluded.xp, total_caught=excluded.total_caught`, a)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`delete from crab_inventory where server=? and user=?`, a.Server, a.User); err != nil {
		return err
	}
	for item, n := range a.Inventory {
		_, err := tx.Exec(`insert into crab_inventory (server, user, item, count) values (?, ?, ?, ?)`,
			a.Server, a.User, item, n)
		if err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`delete from crab_collection where server=? and user=?`, a.Server, a.User); err != nil {
		return err
	}
	for creature, n := range a.Collection {
		_, err := tx.Exec(`insert into crab_collection (server, user, creature, count) values (?, ?, ?, ?)`,
			a.Server, a.User, creature, n)
		if err != nil {
			return err
		}
	}
	return nil
}

// TopAccounts lists the n best catchers of a server. Ties keep the order
// the accounts were created in.
func (s *Store) TopAccounts(server string, n int) ([]Account, error) {
	accounts := []Account{}
	err := s.db.Select(&accounts, `select id, server, user, name, coins, level, xp, total_caught
		from crab_accounts where server=?
		order by total_caught desc, id asc limit ?`, server, n)
	if err != nil {
		return nil, fmt.Errorf("loading leaderboard: %w", err)
	}
	return accounts, nil
}

// Rank is a's 1-based leaderboard position
func (s *Store) Rank(a Account) (int, error) {
	id := a.ID
	if id == 0 {
		id = math.MaxInt64
	}
	var ahead int
	err := s.db.Get(&ahead, `select count(*) from crab_accounts
		where server=? and (total_caught > ? or (total_caught = ? and id < ?))`,
		a.Server, a.TotalCaught, a.TotalCaught, id)
	if err != nil {
		return 0, fmt.Errorf("ranking: %w", err)
	}
	return ahead + 1, nil
}

// GetServer loads a server's settings or the defaults
func (s *Store) GetServer(server string) (ServerConfig, error) {
	cfg := newServerConfig(server)
	err := s.db.Get(&cfg, `select server, spawn_channel, enabled, prefix
		from crab_servers where server=?`, server)
	if errors.Is(err, sql.ErrNoRows) {
		return newServerConfig(server), nil
	}
	if err != nil {
		return cfg, fmt.Errorf("loading server %s: %w", server, err)
	}
	return cfg, nil
}

func (s *Store) PutServer(cfg ServerConfig) error {
	_, err := s.db.NamedExec(`insert into crab_servers (server, spawn_channel, enabled, prefix)
		values (:server, :spawn_channel, :enabled, :prefix)
		on conflict(server) do update set
			spawn_channel=excluded.spawn_channel, enabled=excluded.enabled, prefix=excluded.prefix`, cfg)
	if err != nil {
		return fmt.Errorf("saving server %s: %w", cfg.Server, err)
	}
	return nil
}

// EnabledServers lists servers that have a spawn channel and spawning on
func (s *Store) EnabledServers() ([]ServerConfig, error) {
	out := []ServerConfig{}
	err := s.db.Select(&out, `select server, spawn_channel, enabled, prefix from crab_servers
		where enabled=1 and spawn_channel != '' order by server`)
	if err != nil {
		return nil, fmt.Errorf("listing servers: %w", err)
	}
	return out, nil
}

// ResetServer deletes every account of a server and turns spawning off.
// The prefix survives.
func (s *Store) ResetServer(server string) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("resetting %s: %w", server, err)
	}
	for _, q := range []string{
		`delete from crab_accounts where server=?`,
		`delete from crab_inventory where server=?`,
		`delete from crab_collection where server=?`,
		`update crab_servers set enabled=0, spawn_channel='' where server=?`,
	} {
		if _, err := tx.Exec(q, server); err != nil {
			tx.Rollback()
			return fmt.Errorf("resetting %s: %w", server, err)
		}
	}
	return tx.Commit()
}
