package loader

import (
	"context"

	"github.com/reviewbase/yelpdb/record"
	"github.com/reviewbase/yelpdb/store/sqlite"
)

// LoadPhotos populates photos from the photo file inside one
// transaction. A duplicate photo_id is silently skipped.
func LoadPhotos(ctx context.Context, st *sqlite.Store, path string) error {
	return st.WithTx(ctx, func(tx *sqlite.Tx) error {
		return record.Each(path, func(p record.Photo) error {
			businessID, err := tx.ResolveOrCreate(ctx, sqlite.KindBusiness, p.BusinessID)
			if err != nil {
				return err
			}
			return tx.InsertPhoto(ctx, p, businessID)
		})
	})
}
