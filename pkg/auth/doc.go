// Package auth implements the client-side session lifecycle for BizTrack.
//
// A Controller moves through four states:
//
//	Uninitialized --Start--> Restoring --validated--> Authenticated
//	                              |                       |
//	                              +------> Unauthenticated <+
//
// Start loads the persisted session and validates its token with a profile
// fetch. The stored session is visible immediately through Session, but the
// MainApp navigation signal is only sent once the server has accepted the
// token. Login, Logout, expiry and failed validation all converge on
// Unauthenticated with the store cleared, whatever order they race in.
//
// The controller subscribes to the API client's 401 hook:
//
//	client, _ := apiclient.New(baseURL)
//	ctrl := auth.NewController(bizapi.New(client), session.NewStore(kv),
//	    auth.WithNavigator(nav),
//	)
//	client.OnUnauthorized(ctrl.HandleUnauthorized)
//
// While authenticated the session is re-validated every five minutes by
// default. StopRevalidation and StartRevalidation pause and resume the
// checks; they also stop for good on Close and whenever the session ends.
package auth
