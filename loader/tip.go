package loader

import (
	"context"

	"github.com/reviewbase/yelpdb/record"
	"github.com/reviewbase/yelpdb/store/sqlite"
)

// LoadTips populates tips from the tip file inside one transaction,
// stubbing referenced businesses and users as needed.
func LoadTips(ctx context.Context, st *sqlite.Store, path string) error {
	return st.WithTx(ctx, func(tx *sqlite.Tx) error {
		return record.Each(path, func(t record.Tip) error {
			userID, err := tx.ResolveOrCreate(ctx, sqlite.KindUser, t.UserID)
			if err != nil {
				return err
			}
			businessID, err := tx.ResolveOrCreate(ctx, sqlite.KindBusiness, t.BusinessID)
			if err != nil {
				return err
			}
			return tx.InsertTip(ctx, t, userID, businessID)
		})
	})
}
