// Package google handles OAuth2 authentication against Google and the
// secure storage of the resulting tokens.
//
// The installed-app flow is used: AuthURL produces a consent URL, the
// user pastes back the authorization code, and SaveAuthCode exchanges it
// for a token. Tokens are stored per account alias in the OS keyring,
// with an AES-256-GCM encrypted file fallback for WSL, headless and
// container environments where no keyring is available.
package google
