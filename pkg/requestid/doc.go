// Package requestid correlates the requests exchanged between the session
// client and the authority.
//
// Transport stamps outgoing profile checks and heartbeats with an
// "X-Request-ID" header. Middleware reads the header on the serving side
// (the mock authority), generating an id when it is missing or malformed,
// and exposes it through FromContext. LoggerExtractor turns the id into a
// "request_id" log attribute:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//
// An id set with WithContext is reused by Transport, so a caller can tie a
// request to its own logs.
package requestid
