// Package requestid carries correlation identifiers between the client, its
// logs and the API.
//
// A caller tags a context with WithContext (or Ensure) once per user
// operation. The API client sends that ID as the X-Request-ID header on every
// call made with the context, and LoggerExtractor adds it to log records, so
// a single command can be traced across several requests. Without a tagged
// context the client generates one ID per call.
//
// Middleware is the server half: it accepts a well-formed incoming ID or
// replaces it, stores it in the request context and echoes it in the
// response.
package requestid
