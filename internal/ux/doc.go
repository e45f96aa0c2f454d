// Package ux owns the user's persisted theme and motion preferences.
//
// The gating engine never reads preferences itself. The PreferencesManager
// loads them from disk and hands explicit values to the resolvers through
// RawInput, so persistence stays outside the pure decision path.
//
// Preferences live in .themegate/preferences.json. Files written by older
// releases are upgraded in place by MigratePreferences.
package ux
