// Package session defines the client-side session record (a bearer token and
// the user it belongs to) and persists it in a kvstore.Store.
//
// The store keeps two invariants:
//
//   - Load never returns a session with only one of token and user. Partial
//     or unreadable records are cleared and reported as ErrNoSession.
//   - Save never leaves a token without its user. Batch-capable backends
//     write both keys atomically; others write the user before the token.
//
// Clear is idempotent.
//
//	store := session.NewStore(kv)
//	if err := store.Save(ctx, session.New(token, user)); err != nil {
//	    return err
//	}
//	sess, err := store.Load(ctx)
//	if errors.Is(err, session.ErrNoSession) {
//	    // show the sign-in flow
//	}
package session
