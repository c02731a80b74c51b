// Package config loads the qubicdash-server configuration from a YAML or TOML
// file.
//
// Sections:
//   - server    : HTTP port, API key auth, snapshot TTL, broadcast interval, CORS
//   - upstream  : qubic.li, CoinGecko and history base URLs, login, request timeout
//   - refresh   : polling interval, retry budget, token expiry skew
//   - projection: epoch anchor and the income formula constants
//   - alerts    : threshold rules and webhook targets
//   - display   : fallback language and the UTC offset dates are shown in
//
// Secrets (password, API key, webhook URLs) are never stored in the file;
// the file names the environment variables that hold them.
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, onChange) reloads the file when it changes.
package config
