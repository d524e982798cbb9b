// Package authkit provides session-bound authentication primitives (RS256
// token pairs, a revocable session store, HTTP guard middleware) plus the
// account flows that feed them.
//
// Token pairs and sessions:
//   - Every login creates a server-side Session first, then signs an access
//     and a refresh token that both carry the session id. Revoking the
//     session kills both tokens at once, regardless of their expiry.
//   - TokenService owns issuance, verification, and revocation. Session
//     rows are persisted via Bun and swept by a background Sweeper once
//     they expire or are revoked.
//
// Guard middleware:
//   - middleware/guard validates the signature, rejects refresh tokens on
//     protected routes, checks the session is still live against the store,
//     and touches the session's last activity. Store outages surface as
//     server errors, never as silent authorization.
//
// Account flows:
//   - Auther covers password signup/signin, Google, Telegram, and WhatsApp
//     logins, logout (single and all-devices), and password changes that
//     revoke every other session.
package authkit
