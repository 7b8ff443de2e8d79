// Package auth provides the authentication and session-token subsystem of the
// UAV training center platform: bcrypt password hashing, an access/refresh
// JWT service, atomic student registration backed by Bun, and the fiber
// handlers mounted under /api/auth.
//
// Tokens:
//   - Access and refresh tokens are signed with distinct HS256 secrets and
//     carry a typ claim, so one variant never verifies as the other.
//   - Verification failures are either ErrTokenExpired or ErrTokenInvalid;
//     use IsTokenExpiredError and IsTokenInvalidError to tell them apart.
//
// Registration:
//   - RegisterUserHandler writes the users row and its user_profiles row in a
//     single transaction. A duplicate phone or email is rejected up front and
//     again by the unique constraints.
//
// Activity sinks:
//   - ActivitySink receives register, login and refresh events. Sinks run
//     best-effort (errors are logged) so forwarding to a queue never blocks
//     authentication. See the activitymap package for a normalized logger sink.
package auth
