package loader

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/reviewbase/yelpdb/record"
	"github.com/reviewbase/yelpdb/store/sqlite"
)

// LoadUsers populates users and elite from the user file inside one
// transaction. Friend linking happens in a separate pass (ConnectUsers)
// once every user has a surrogate id.
func LoadUsers(ctx context.Context, st *sqlite.Store, path string) error {
	return st.WithTx(ctx, func(tx *sqlite.Tx) error {
		return record.Each(path, func(u record.User) error {
			userID, err := tx.InsertUser(ctx, u)
			if errors.Is(err, sqlite.ErrDuplicate) {
				return nil
			}
			if err != nil {
				return err
			}

			if u.Elite == "" || u.Elite == "None" {
				return nil
			}
			years, err := eliteYears(u.Elite)
			if err != nil {
				return fmt.Errorf("user %q: %w", u.UserID, err)
			}
			for _, year := range years {
				if err := tx.InsertElite(ctx, userID, year); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// eliteYears splits the comma-joined elite string into years. The 2020
// dataset export writes the year 2020 as "20,20"; undo that first.
func eliteYears(elite string) ([]int, error) {
	fixed := strings.ReplaceAll(elite, "20,20", "2020")
	parts := strings.Split(fixed, ",")
	years := make([]int, 0, len(parts))
	for _, p := range parts {
		year, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad elite year %q", p)
		}
		years = append(years, year)
	}
	return years, nil
}
