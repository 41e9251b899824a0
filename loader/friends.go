package loader

import (
	"context"
	"fmt"

	"github.com/reviewbase/yelpdb/record"
	"github.com/reviewbase/yelpdb/store/sqlite"
)

// ConnectUsers is the friend-graph pass: a second read of the user file
// after LoadUsers has assigned every user a surrogate id.
//
// Per user it sets friend_count to the number of friend keys LISTED in
// the source, then resolves each key against existing users only and
// writes one friends row per resolved pair. Friend keys that do not
// resolve are dropped from the relation but still counted; no stub rows
// are created here. Each direction of a friendship is inserted
// independently as that user's record is visited.
func ConnectUsers(ctx context.Context, st *sqlite.Store, path string) error {
	return st.WithTx(ctx, func(tx *sqlite.Tx) error {
		return record.Each(path, func(u record.User) error {
			userID, ok, err := tx.Lookup(ctx, sqlite.KindUser, u.UserID)
			if err != nil {
				return err
			}
			if !ok {
				// LoadUsers ran first, so every user in the file resolves.
				return fmt.Errorf("user %q missing from users table", u.UserID)
			}

			friendKeys := record.SplitList(u.Friends)
			if err := tx.UpdateFriendCount(ctx, userID, len(friendKeys)); err != nil {
				return err
			}

			for _, key := range friendKeys {
				friendID, ok, err := tx.Lookup(ctx, sqlite.KindUser, key)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				if err := tx.InsertFriend(ctx, userID, friendID); err != nil {
					return err
				}
			}
			return nil
		})
	})
}
