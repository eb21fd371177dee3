// Package authstate provides client-side session state management on top of
// a hosted identity provider plus a profile table.
//
// Session lifecycle:
//   - Store owns the current Identity, Session, and Profile and keeps them in
//     sync with the provider's session-change event stream. Call Start once to
//     adopt the current remote session and acquire the subscription; Close
//     releases it and suppresses any late state writes.
//   - Profile rows are fetched reactively whenever a session with an identity
//     is adopted. A missing row is benign (mid-signup accounts have none);
//     fetch failures are logged and swallowed, never surfaced to consumers.
//
// Operations:
//   - Signup, Login, and Logout delegate to the provider and re-surface its
//     errors. They never write local state directly; the subscription picks up
//     the resulting session-change event so both paths converge on the same
//     remote truth.
//   - ToggleFavorite and UpdateSubscription write the profile row first and
//     replace the local cache only after the remote write is confirmed.
//
// Implementations of the remote boundary live in provider subpackages; the
// bun-backed Profiles repository in this package serves the profile table.
package authstate
