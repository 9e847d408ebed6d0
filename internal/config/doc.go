// Package config loads and watches the reporter configuration file.
//
// Top-level types:
//   - Config{Report, CrUX, Slack} — full config tree parsed from YAML
//   - ReportConfig — origin, sitemap_url, pages, lookback_weeks,
//     history_path, chart_dir, textfile_path, warn_poor_pct, interval
//   - CrUXConfig — endpoint, api_key_env, timeout; APIKey() resolves the
//     key from the environment
//   - SlackConfig — webhook_url_env, bot_token_env, channel; WebhookURL()
//     and BotToken() resolve from the environment
//
// Secrets never live in the file itself: the *_env fields name the
// environment variables that hold them, so the YAML can be committed.
//
// Load(path) reads the file, applies defaults (12-week lookback, data/
// artifact paths, 24h interval) and validates required fields.
//
// Watch(ctx, path, onChange) uses fsnotify to reload the file on change
// in scheduled mode, handling the rename→create pattern of atomic-save
// editors by re-adding the watch.
package config
