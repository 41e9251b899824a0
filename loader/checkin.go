package loader

import (
	"context"
	"strings"

	"github.com/reviewbase/yelpdb/record"
	"github.com/reviewbase/yelpdb/store/sqlite"
)

// LoadCheckins populates checkins from the checkin file inside one
// transaction. Each record's date field is a comma-joined list of
// timestamps; every timestamp becomes its own row, with no dedup.
func LoadCheckins(ctx context.Context, st *sqlite.Store, path string) error {
	return st.WithTx(ctx, func(tx *sqlite.Tx) error {
		return record.Each(path, func(c record.Checkin) error {
			businessID, err := tx.ResolveOrCreate(ctx, sqlite.KindBusiness, c.BusinessID)
			if err != nil {
				return err
			}
			for _, date := range strings.Split(c.Date, ",") {
				if err := tx.InsertCheckin(ctx, businessID, strings.TrimSpace(date)); err != nil {
					return err
				}
			}
			return nil
		})
	})
}
