// Package apiclient is the thin HTTP layer between the BizTrack core and the
// remote REST API.
//
// A Client builds requests with JSON or multipart bodies, attaches bearer
// tokens, parses JSON responses and maps every failure to a typed *Error.
// It performs exactly one attempt per call; there is no retry logic.
//
// # Error model
//
// Non-2xx responses become *Error carrying the server's "message" (or
// "error") field and the real status code. The body is parsed as JSON for
// error statuses too, so the raw envelope is available as Error.Payload.
// Transport failures become *Error with StatusCode == StatusNetworkError and
// wrap ErrNetwork.
//
// # Session expiry
//
// A 401 response from any endpoint fires the UnauthorizedHandler before the
// error is returned. The transport layer knows nothing about screens or
// sessions; the session controller subscribes to this hook and turns it into
// a forced logout.
//
// # Usage
//
//	client, err := apiclient.New("https://api.example.com",
//	    apiclient.WithTimeout(10*time.Second),
//	    apiclient.WithLogger(log),
//	)
//	if err != nil {
//	    return err
//	}
//
//	var out struct {
//	    Balance float64 `json:"balance"`
//	}
//	err = client.Do(ctx, http.MethodGet, "/api/balance", &out,
//	    apiclient.WithToken(token),
//	)
//	if apiclient.IsUnauthorized(err) {
//	    // session already cleared by the hook
//	}
package apiclient
