package loader

import (
	"context"

	"github.com/reviewbase/yelpdb/record"
	"github.com/reviewbase/yelpdb/store/sqlite"
)

// LoadReviews populates reviews from the review file inside one
// transaction. A review referencing a business or user not yet loaded
// gets a stub row for it; a duplicate review_id is silently skipped.
func LoadReviews(ctx context.Context, st *sqlite.Store, path string) error {
	return st.WithTx(ctx, func(tx *sqlite.Tx) error {
		return record.Each(path, func(r record.Review) error {
			userID, err := tx.ResolveOrCreate(ctx, sqlite.KindUser, r.UserID)
			if err != nil {
				return err
			}
			businessID, err := tx.ResolveOrCreate(ctx, sqlite.KindBusiness, r.BusinessID)
			if err != nil {
				return err
			}
			return tx.InsertReview(ctx, r, userID, businessID)
		})
	})
}
