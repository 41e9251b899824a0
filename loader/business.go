package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/reviewbase/yelpdb/record"
	"github.com/reviewbase/yelpdb/store/sqlite"
)

// closedAllDay marks a day the source encodes as closed; such days get
// no hours row at all.
const closedAllDay = "0:0-0:0"

// LoadBusinesses populates business, category, category_business,
// attributes, business_attributes and hours from the business file,
// inside one transaction (the days lookup is seeded and committed
// beforehand). A record whose business_id already exists is skipped
// whole: none of its category, attribute or hours rows are written
// either.
func LoadBusinesses(ctx context.Context, st *sqlite.Store, path string) error {
	// The days lookup is per database, not per file: it commits on its
	// own so a rollback of the business file leaves it seeded.
	var dayIDs map[string]int64
	if err := st.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		dayIDs, err = tx.SeedDays(ctx)
		return err
	}); err != nil {
		return err
	}

	return st.WithTx(ctx, func(tx *sqlite.Tx) error {
		return record.Each(path, func(b record.Business) error {
			businessID, err := tx.InsertBusiness(ctx, b)
			if errors.Is(err, sqlite.ErrDuplicate) {
				return nil
			}
			if err != nil {
				return err
			}

			if b.Categories != nil {
				for _, name := range record.SplitList(*b.Categories) {
					categoryID, err := tx.ResolveOrCreate(ctx, sqlite.KindCategory, name)
					if err != nil {
						return err
					}
					if err := tx.LinkCategory(ctx, categoryID, businessID); err != nil {
						return err
					}
				}
			}

			if b.Attributes != nil {
				for name, value := range record.FlattenAttributes(b.Attributes) {
					attributeID, err := tx.ResolveOrCreate(ctx, sqlite.KindAttribute, name)
					if err != nil {
						return err
					}
					if err := tx.LinkAttribute(ctx, attributeID, businessID, value); err != nil {
						return err
					}
				}
			}

			for day, hours := range b.Hours {
				if hours == closedAllDay {
					continue
				}
				dayID, ok := dayIDs[day]
				if !ok {
					return fmt.Errorf("business %q: unknown day %q", b.BusinessID, day)
				}
				if err := tx.InsertHours(ctx, businessID, dayID, hours); err != nil {
					return err
				}
			}
			return nil
		})
	})
}
