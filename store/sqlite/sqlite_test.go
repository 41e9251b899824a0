package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewbase/yelpdb/record"
	"github.com/reviewbase/yelpdb/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func rowCount(t *testing.T, store *sqlite.Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func testBusiness(id string) record.Business {
	return record.Business{
		BusinessID:  id,
		Name:        "Schwartz's Deli ",
		Address:     "3895 Boulevard Saint-Laurent",
		City:        "Montreal",
		State:       "QC",
		PostalCode:  "H2W 1X9",
		Latitude:    45.516,
		Longitude:   -73.577,
		Stars:       4.5,
		ReviewCount: 812,
		IsOpen:      1,
	}
}

// =============================================================================
// KEY RESOLUTION
// =============================================================================

func TestResolveOrCreate_Idempotent(t *testing.T) {
	// GIVEN: an empty database
	// WHEN: the same natural key is resolved twice
	// THEN: both calls return the same surrogate id and exactly one row exists

	store := newTestStore(t)
	ctx := context.Background()

	var first, second int64
	err := store.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		first, err = tx.ResolveOrCreate(ctx, sqlite.KindBusiness, "b-abc")
		require.NoError(t, err)
		second, err = tx.ResolveOrCreate(ctx, sqlite.KindBusiness, "b-abc")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, rowCount(t, store, "business"))
}

func TestResolveOrCreate_AcrossTransactions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var first, second int64
	require.NoError(t, store.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		first, err = tx.ResolveOrCreate(ctx, sqlite.KindUser, "u-1")
		return err
	}))
	require.NoError(t, store.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		second, err = tx.ResolveOrCreate(ctx, sqlite.KindUser, "u-1")
		return err
	}))

	assert.Equal(t, first, second)
	assert.Equal(t, 1, rowCount(t, store, "users"))
}

func TestResolveOrCreate_StubHoldsOnlyNaturalKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.WithTx(ctx, func(tx *sqlite.Tx) error {
		_, err := tx.ResolveOrCreate(ctx, sqlite.KindBusiness, "b-stub")
		return err
	}))

	var name sql.NullString
	require.NoError(t, store.DB().QueryRow(
		"SELECT name FROM business WHERE business_id_str = ?", "b-stub").Scan(&name))
	assert.False(t, name.Valid, "stub row carries no scalar attributes")
}

func TestInsertBusiness_AfterStub_ReturnsErrDuplicate(t *testing.T) {
	// The forward-reference hazard: once a stub exists, the full record's
	// insert hits the uniqueness constraint and the caller skips it.

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if _, err := tx.ResolveOrCreate(ctx, sqlite.KindBusiness, "b-1"); err != nil {
			return err
		}
		_, err := tx.InsertBusiness(ctx, testBusiness("b-1"))
		assert.True(t, errors.Is(err, sqlite.ErrDuplicate))
		return nil
	}))

	assert.Equal(t, 1, rowCount(t, store, "business"))
}

func TestLookup_DoesNotCreate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.WithTx(ctx, func(tx *sqlite.Tx) error {
		_, ok, err := tx.Lookup(ctx, sqlite.KindUser, "nobody")
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	}))

	assert.Equal(t, 0, rowCount(t, store, "users"))
}

// =============================================================================
// PRIMARY INSERTS
// =============================================================================

func TestInsertBusiness_TrimsStringFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.WithTx(ctx, func(tx *sqlite.Tx) error {
		_, err := tx.InsertBusiness(ctx, testBusiness("b-1"))
		return err
	}))

	var name string
	require.NoError(t, store.DB().QueryRow(
		"SELECT name FROM business WHERE business_id_str = ?", "b-1").Scan(&name))
	assert.Equal(t, "Schwartz's Deli", name)
}

func TestInsertUser_DuplicateNaturalKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u := record.User{UserID: "u-1", Name: "Ann"}
	require.NoError(t, store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if _, err := tx.InsertUser(ctx, u); err != nil {
			return err
		}
		_, err := tx.InsertUser(ctx, u)
		assert.True(t, errors.Is(err, sqlite.ErrDuplicate))
		return nil
	}))

	assert.Equal(t, 1, rowCount(t, store, "users"))
}

// =============================================================================
// TRANSACTION SCOPE
// =============================================================================

func TestWithTx_RollbackOnError(t *testing.T) {
	// GIVEN: writes inside a transaction
	// WHEN: the callback returns an error
	// THEN: none of the writes survive

	store := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if _, err := tx.InsertBusiness(ctx, testBusiness("b-1")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, rowCount(t, store, "business"))
}

// =============================================================================
// DAYS LOOKUP
// =============================================================================

func TestSeedDays_IdempotentAndFixed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var ids map[string]int64
	for i := 0; i < 2; i++ {
		require.NoError(t, store.WithTx(ctx, func(tx *sqlite.Tx) error {
			var err error
			ids, err = tx.SeedDays(ctx)
			return err
		}))
	}

	assert.Equal(t, 7, rowCount(t, store, "days"))
	assert.Equal(t, int64(1), ids["Monday"])
	assert.Equal(t, int64(7), ids["Sunday"])
}

// =============================================================================
// FACT INSERTS
// =============================================================================

func TestInsertReview_DuplicateIsNoOp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := record.Review{ReviewID: "r-1", UserID: "u-1", BusinessID: "b-1", Stars: 4, Date: "2020-01-01"}
	require.NoError(t, store.WithTx(ctx, func(tx *sqlite.Tx) error {
		userID, err := tx.ResolveOrCreate(ctx, sqlite.KindUser, r.UserID)
		require.NoError(t, err)
		businessID, err := tx.ResolveOrCreate(ctx, sqlite.KindBusiness, r.BusinessID)
		require.NoError(t, err)

		require.NoError(t, tx.InsertReview(ctx, r, userID, businessID))
		require.NoError(t, tx.InsertReview(ctx, r, userID, businessID))
		return nil
	}))

	assert.Equal(t, 1, rowCount(t, store, "reviews"))
}

func TestInsertFriend_DuplicatePairIsNoOp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.WithTx(ctx, func(tx *sqlite.Tx) error {
		a, err := tx.ResolveOrCreate(ctx, sqlite.KindUser, "u-a")
		require.NoError(t, err)
		b, err := tx.ResolveOrCreate(ctx, sqlite.KindUser, "u-b")
		require.NoError(t, err)

		require.NoError(t, tx.InsertFriend(ctx, a, b))
		require.NoError(t, tx.InsertFriend(ctx, a, b))
		// the reverse direction is a distinct pair
		require.NoError(t, tx.InsertFriend(ctx, b, a))
		return nil
	}))

	assert.Equal(t, 2, rowCount(t, store, "friends"))
}

func TestUpdateFriendCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.WithTx(ctx, func(tx *sqlite.Tx) error {
		id, err := tx.ResolveOrCreate(ctx, sqlite.KindUser, "u-1")
		require.NoError(t, err)
		return tx.UpdateFriendCount(ctx, id, 3)
	}))

	var n int
	require.NoError(t, store.DB().QueryRow(
		"SELECT friend_count FROM users WHERE user_id_str = ?", "u-1").Scan(&n))
	assert.Equal(t, 3, n)
}

// =============================================================================
// JUNCTION INSERTS
// =============================================================================

func TestLinkCategory_DuplicatePairIsNoOp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.WithTx(ctx, func(tx *sqlite.Tx) error {
		businessID, err := tx.ResolveOrCreate(ctx, sqlite.KindBusiness, "b-1")
		require.NoError(t, err)
		categoryID, err := tx.ResolveOrCreate(ctx, sqlite.KindCategory, "Food")
		require.NoError(t, err)

		require.NoError(t, tx.LinkCategory(ctx, categoryID, businessID))
		require.NoError(t, tx.LinkCategory(ctx, categoryID, businessID))
		return nil
	}))

	assert.Equal(t, 1, rowCount(t, store, "category_business"))
}

func TestLinkAttribute_DuplicatePairKeepsFirstValue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.WithTx(ctx, func(tx *sqlite.Tx) error {
		businessID, err := tx.ResolveOrCreate(ctx, sqlite.KindBusiness, "b-1")
		require.NoError(t, err)
		attributeID, err := tx.ResolveOrCreate(ctx, sqlite.KindAttribute, "WiFi")
		require.NoError(t, err)

		require.NoError(t, tx.LinkAttribute(ctx, attributeID, businessID, "free"))
		require.NoError(t, tx.LinkAttribute(ctx, attributeID, businessID, "paid"))
		return nil
	}))

	assert.Equal(t, 1, rowCount(t, store, "business_attributes"))

	var value string
	require.NoError(t, store.DB().QueryRow(
		"SELECT value FROM business_attributes").Scan(&value))
	assert.Equal(t, "free", value)
}

// =============================================================================
// LOOKUP TABLES
// =============================================================================

func TestResolveOrCreate_CategoryAndAttributeByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.WithTx(ctx, func(tx *sqlite.Tx) error {
		c1, err := tx.ResolveOrCreate(ctx, sqlite.KindCategory, "Coffee & Tea")
		require.NoError(t, err)
		c2, err := tx.ResolveOrCreate(ctx, sqlite.KindCategory, "Coffee & Tea")
		require.NoError(t, err)
		assert.Equal(t, c1, c2)

		_, err = tx.ResolveOrCreate(ctx, sqlite.KindAttribute, "WiFi")
		return err
	}))

	assert.Equal(t, 1, rowCount(t, store, "category"))
	assert.Equal(t, 1, rowCount(t, store, "attributes"))
}
