/*
Package sqlite owns the destination database for the ingestion pipeline.

PURPOSE:
  Creates the normalized relational schema for the Yelp dataset and
  provides the write primitives the entity loaders drive: per-file
  transactions, natural-key resolution, and duplicate-tolerant inserts.

KEY TABLES:
  business, users:      primary entities with surrogate integer ids and a
                        unique natural-key column (business_id_str,
                        user_id_str)
  category, attributes: lookup tables keyed by unique name
  category_business, business_attributes, friends, hours, elite:
                        junction / child tables
  reviews, tips, checkins, photos: fact tables referencing the above
  days:                 fixed 7-row lookup, Monday=1 .. Sunday=7

KEY RESOLUTION:
  Tx.ResolveOrCreate maps a natural key to its surrogate id for any Kind
  (table + natural-key column pair), inserting a stub row holding only
  the natural key when the key is new. Re-resolving the same key always
  returns the same id. This one primitive serves businesses, users,
  categories and attributes alike.

DUPLICATES:
  A uniqueness violation on a primary insert surfaces as ErrDuplicate so
  the caller can skip the record and continue; it is ordinary control
  flow, never a run failure. Fact inserts with a natural key use
  INSERT OR IGNORE, making a re-run of the same file a no-op.

TRANSACTIONS:
  WithTx opens one transaction for an entire source file. An error from
  the callback rolls back every write of that file; nil commits.

CONCURRENCY:
  Single-writer batch tool. The pool is pinned to one connection, which
  also keeps ":memory:" databases coherent across calls.

USAGE:
  store, err := sqlite.New("./yelp.db")
  if err != nil { ... }
  defer store.Close()

  err = store.WithTx(ctx, func(tx *sqlite.Tx) error {
      id, err := tx.ResolveOrCreate(ctx, sqlite.KindBusiness, "abc123")
      ...
  })

SEE ALSO:
  - loader package: drives these primitives per entity kind
  - record package: the decoded source records inserted here
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/reviewbase/yelpdb/record"
)

// ErrDuplicate reports a natural-key uniqueness violation. Callers skip
// the offending record and continue.
var ErrDuplicate = errors.New("duplicate natural key")

// Store wraps the destination SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dbPath and ensures the
// schema exists. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer: the pipeline is strictly sequential, and :memory:
	// databases exist per connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for ad hoc queries against a built
// database (reporting, inspection). The pipeline itself writes only
// through Tx.
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Primary entities (surrogate integer ids, unique natural keys)
	CREATE TABLE IF NOT EXISTS business (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		business_id_str VARCHAR(32) UNIQUE,
		name VARCHAR(256),
		address VARCHAR(128),
		city VARCHAR(128),
		state VARCHAR(64),
		postal_code VARCHAR(8),
		latitude REAL,
		longitude REAL,
		stars REAL,
		review_count INTEGER,
		is_open INTEGER
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id_str VARCHAR(32) UNIQUE,
		name VARCHAR(128),
		review_count INTEGER,
		yelping_since VARCHAR(32),
		useful INTEGER,
		funny INTEGER,
		cool INTEGER,
		fans INTEGER,
		friend_count INTEGER,
		average_stars REAL,
		compliment_hot INTEGER,
		compliment_more INTEGER,
		compliment_profile INTEGER,
		compliment_cute INTEGER,
		compliment_list INTEGER,
		compliment_note INTEGER,
		compliment_plain INTEGER,
		compliment_cool INTEGER,
		compliment_funny INTEGER,
		compliment_writer INTEGER,
		compliment_photos INTEGER
	);

	-- Fixed weekday lookup, seeded by SeedDays
	CREATE TABLE IF NOT EXISTS days (
		id INTEGER PRIMARY KEY,
		day VARCHAR(32) UNIQUE
	);

	CREATE TABLE IF NOT EXISTS hours (
		business_id INTEGER REFERENCES business(id),
		day_id INTEGER REFERENCES days(id),
		open_hours VARCHAR(128),
		UNIQUE(business_id, day_id)
	);

	CREATE TABLE IF NOT EXISTS elite (
		user_id INTEGER REFERENCES users(id),
		year INTEGER
	);

	CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		review_id_str VARCHAR(32) UNIQUE,
		user_id INTEGER REFERENCES users(id),
		business_id INTEGER REFERENCES business(id),
		stars INTEGER,
		date VARCHAR(32),
		text TEXT,
		useful INTEGER,
		funny INTEGER,
		cool INTEGER
	);

	CREATE TABLE IF NOT EXISTS tips (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		business_id INTEGER REFERENCES business(id),
		user_id INTEGER REFERENCES users(id),
		text TEXT,
		date VARCHAR(32),
		compliment_count INTEGER,
		UNIQUE(business_id, user_id, date)
	);

	CREATE TABLE IF NOT EXISTS checkins (
		business_id INTEGER REFERENCES business(id),
		date TEXT
	);

	CREATE TABLE IF NOT EXISTS category (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(128) UNIQUE
	);

	CREATE TABLE IF NOT EXISTS category_business (
		category_id INTEGER REFERENCES category(id),
		business_id INTEGER REFERENCES business(id),
		UNIQUE(category_id, business_id)
	);

	CREATE TABLE IF NOT EXISTS friends (
		user1_id INTEGER REFERENCES users(id),
		user2_id INTEGER REFERENCES users(id),
		UNIQUE(user1_id, user2_id)
	);

	CREATE TABLE IF NOT EXISTS attributes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(128) UNIQUE
	);

	CREATE TABLE IF NOT EXISTS business_attributes (
		attribute_id INTEGER REFERENCES attributes(id),
		business_id INTEGER REFERENCES business(id),
		value VARCHAR(128),
		UNIQUE(attribute_id, business_id)
	);

	CREATE TABLE IF NOT EXISTS photos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		photo_id_str VARCHAR(32) UNIQUE,
		business_id INTEGER REFERENCES business(id),
		caption TEXT,
		label TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// WithTx executes fn within one database transaction. The pipeline uses
// one transaction per source file: an error rolls back the whole file's
// work, nil commits it.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// Tx is a per-file transaction handle carrying the write primitives.
type Tx struct {
	tx *sql.Tx
}

// =============================================================================
// KEY RESOLUTION
// =============================================================================

// Kind identifies an entity table and its natural-key column.
type Kind struct {
	Table     string
	KeyColumn string
}

var (
	KindBusiness  = Kind{Table: "business", KeyColumn: "business_id_str"}
	KindUser      = Kind{Table: "users", KeyColumn: "user_id_str"}
	KindCategory  = Kind{Table: "category", KeyColumn: "name"}
	KindAttribute = Kind{Table: "attributes", KeyColumn: "name"}
)

// ResolveOrCreate maps a natural key to its surrogate id, inserting a
// stub row holding only the natural key when the key is not present.
// Absence is not an error; the same key always resolves to the same id.
func (t *Tx) ResolveOrCreate(ctx context.Context, kind Kind, naturalKey string) (int64, error) {
	id, ok, err := t.Lookup(ctx, kind, naturalKey)
	if err != nil {
		return 0, err
	}
	if ok {
		return id, nil
	}

	res, err := t.tx.ExecContext(ctx,
		"INSERT INTO "+kind.Table+" ("+kind.KeyColumn+") VALUES (?)", naturalKey)
	if err != nil {
		return 0, fmt.Errorf("create %s stub for %q: %w", kind.Table, naturalKey, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("stub id for %s %q: %w", kind.Table, naturalKey, err)
	}
	return id, nil
}

// Lookup resolves a natural key against existing rows only. The friend
// pass uses this: unresolved friends are dropped, never stubbed.
func (t *Tx) Lookup(ctx context.Context, kind Kind, naturalKey string) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		"SELECT id FROM "+kind.Table+" WHERE "+kind.KeyColumn+" = ?", naturalKey).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("resolve %s %q: %w", kind.Table, naturalKey, err)
	}
	return id, true, nil
}

// =============================================================================
// DAYS LOOKUP
// =============================================================================

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// SeedDays idempotently populates the days lookup (Monday=1 .. Sunday=7)
// and returns the name-to-id mapping used when inserting hours rows.
func (t *Tx) SeedDays(ctx context.Context) (map[string]int64, error) {
	ids := make(map[string]int64, len(weekdays))
	for i, day := range weekdays {
		id := int64(i + 1)
		if _, err := t.tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO days (id, day) VALUES (?, ?)", id, day); err != nil {
			return nil, fmt.Errorf("seed days: %w", err)
		}
		ids[day] = id
	}
	return ids, nil
}

// =============================================================================
// PRIMARY INSERTS - ErrDuplicate on a natural-key collision
// =============================================================================

// InsertBusiness inserts the scalar columns of a business and returns
// its surrogate id. A duplicate business_id_str yields ErrDuplicate.
func (t *Tx) InsertBusiness(ctx context.Context, b record.Business) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO business
		(business_id_str, name, address, city, state, postal_code,
		 latitude, longitude, stars, review_count, is_open)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(b.BusinessID),
		strings.TrimSpace(b.Name),
		strings.TrimSpace(b.Address),
		strings.TrimSpace(b.City),
		strings.TrimSpace(b.State),
		strings.TrimSpace(b.PostalCode),
		b.Latitude, b.Longitude, b.Stars, b.ReviewCount, b.IsOpen,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert business %q: %w", b.BusinessID, err)
	}
	return res.LastInsertId()
}

// InsertUser inserts the scalar columns of a user and returns its
// surrogate id. friend_count stays NULL until the friend-graph pass.
// A duplicate user_id_str yields ErrDuplicate.
func (t *Tx) InsertUser(ctx context.Context, u record.User) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO users
		(user_id_str, name, review_count, yelping_since, useful, funny, cool, fans,
		 average_stars, compliment_hot, compliment_more, compliment_profile,
		 compliment_cute, compliment_list, compliment_note, compliment_plain,
		 compliment_cool, compliment_funny, compliment_writer, compliment_photos)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.UserID, u.Name, u.ReviewCount, u.YelpingSince,
		u.Useful, u.Funny, u.Cool, u.Fans, u.AverageStars,
		u.ComplimentHot, u.ComplimentMore, u.ComplimentProfile,
		u.ComplimentCute, u.ComplimentList, u.ComplimentNote, u.ComplimentPlain,
		u.ComplimentCool, u.ComplimentFunny, u.ComplimentWriter, u.ComplimentPhotos,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert user %q: %w", u.UserID, err)
	}
	return res.LastInsertId()
}

// =============================================================================
// JUNCTION AND CHILD INSERTS
// =============================================================================

// LinkCategory writes one category_business junction row. A business
// listing the same category twice yields one row; the repeat is a no-op,
// never an error.
func (t *Tx) LinkCategory(ctx context.Context, categoryID, businessID int64) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO category_business (category_id, business_id) VALUES (?, ?)",
		categoryID, businessID)
	if err != nil {
		return fmt.Errorf("link category %d to business %d: %w", categoryID, businessID, err)
	}
	return nil
}

// LinkAttribute writes one business_attributes junction row carrying the
// flattened value; a repeated (attribute, business) pair keeps the first
// value.
func (t *Tx) LinkAttribute(ctx context.Context, attributeID, businessID int64, value string) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO business_attributes (attribute_id, business_id, value) VALUES (?, ?, ?)",
		attributeID, businessID, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("link attribute %d to business %d: %w", attributeID, businessID, err)
	}
	return nil
}

// InsertHours writes one open-hours row for a (business, day) pair.
func (t *Tx) InsertHours(ctx context.Context, businessID, dayID int64, openHours string) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO hours (business_id, day_id, open_hours) VALUES (?, ?, ?)",
		businessID, dayID, openHours)
	if err != nil {
		return fmt.Errorf("insert hours for business %d day %d: %w", businessID, dayID, err)
	}
	return nil
}

// InsertElite writes one elite-year row.
func (t *Tx) InsertElite(ctx context.Context, userID int64, year int) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO elite (user_id, year) VALUES (?, ?)", userID, year)
	if err != nil {
		return fmt.Errorf("insert elite year %d for user %d: %w", year, userID, err)
	}
	return nil
}

// =============================================================================
// FACT INSERTS - duplicates resolved as no-ops
// =============================================================================

// InsertReview writes a review; a duplicate review_id_str is a no-op.
func (t *Tx) InsertReview(ctx context.Context, r record.Review, userID, businessID int64) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO reviews
		(review_id_str, user_id, business_id, stars, date, text, useful, funny, cool)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ReviewID, userID, businessID, r.Stars, r.Date, r.Text, r.Useful, r.Funny, r.Cool)
	if err != nil {
		return fmt.Errorf("insert review %q: %w", r.ReviewID, err)
	}
	return nil
}

// InsertTip writes a tip row. Tips carry no natural key of their own;
// the (business, user, date) triple stands in for one, so reloading the
// tip file is a no-op.
func (t *Tx) InsertTip(ctx context.Context, tip record.Tip, userID, businessID int64) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO tips (business_id, user_id, text, date, compliment_count)
		VALUES (?, ?, ?, ?, ?)`,
		businessID, userID, tip.Text, tip.Date, tip.ComplimentCount)
	if err != nil {
		return fmt.Errorf("insert tip for business %d: %w", businessID, err)
	}
	return nil
}

// InsertCheckin writes one check-in timestamp row. Check-ins have no
// natural key: every timestamp is its own row.
func (t *Tx) InsertCheckin(ctx context.Context, businessID int64, date string) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO checkins (business_id, date) VALUES (?, ?)", businessID, date)
	if err != nil {
		return fmt.Errorf("insert checkin for business %d: %w", businessID, err)
	}
	return nil
}

// InsertPhoto writes a photo; a duplicate photo_id_str is a no-op.
func (t *Tx) InsertPhoto(ctx context.Context, p record.Photo, businessID int64) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO photos (photo_id_str, business_id, caption, label)
		VALUES (?, ?, ?, ?)`,
		p.PhotoID, businessID, p.Caption, p.Label)
	if err != nil {
		return fmt.Errorf("insert photo %q: %w", p.PhotoID, err)
	}
	return nil
}

// =============================================================================
// FRIEND GRAPH
// =============================================================================

// InsertFriend writes one (user, friend) junction row; a duplicate pair
// is a no-op. Each direction is inserted independently as each user's
// record is visited - no symmetric mirroring here.
func (t *Tx) InsertFriend(ctx context.Context, userID, friendID int64) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO friends (user1_id, user2_id) VALUES (?, ?)",
		userID, friendID)
	if err != nil {
		return fmt.Errorf("insert friend pair (%d, %d): %w", userID, friendID, err)
	}
	return nil
}

// UpdateFriendCount sets the denormalized friend_count column. This is
// the only column mutated after initial row insertion.
func (t *Tx) UpdateFriendCount(ctx context.Context, userID int64, count int) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE users SET friend_count = ? WHERE id = ?", count, userID)
	if err != nil {
		return fmt.Errorf("update friend count for user %d: %w", userID, err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
