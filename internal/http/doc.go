// Package http provides HTTP handlers and middleware for the staffing API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response carries the token, expiry and the authenticated account, with
//     the token also surfaced via the `X-Session-Token` header and a
//     `session_token` cookie. DELETE /sessions/current revokes the caller's
//     session; DELETE /sessions/{token} is an administrator revocation.
//   - GET /postings, POST /postings, GET /postings/mine, GET /postings/{id},
//     POST /postings/{id}/close: posting catalog endpoints exchanging the
//     `postingDTO` payload defined in posting_handler.go. Listings include
//     applicant counts derived from stored applications.
//   - POST /applications, GET /applications and the decision endpoints
//     /review, /accept, /reject, /withdraw: candidacy lifecycle endpoints.
//     Pharmacy-side listings pass pharmacist identity through the disclosure
//     mask.
//   - POST /engagements, GET /engagements, POST /engagements/{id}/accept,
//     POST /engagements/{id}/reject: contract offer lifecycle. Accepting an
//     offer materializes work shifts for the contract period.
//   - GET|POST /engagements/{id}/shifts, POST /engagements/{id}/shifts/bulk,
//     DELETE /shifts/{id}: schedule management on active engagements.
//   - GET /fees?status=..., POST /fees/{id}/confirm, /overdue, /cancel:
//     administrator fee settlement endpoints. Confirming payment discloses the
//     pharmacist's personal information to the pharmacy.
//   - GET /applications/{id}/conversation, GET|POST
//     /conversations/{id}/messages: the per-application message thread.
//   - GET /notifications, POST /notifications/{id}/read: the caller's
//     notification feed.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
