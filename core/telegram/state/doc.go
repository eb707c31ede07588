// Package state keeps short-lived per-user conversation sessions for Telegram bots.
//
// A session is opened for one awaited input, guarded by a random token and
// closed exactly once, either by the user's answer or by expiry. Handlers for
// awaited inputs are registered per State on the Manager.
package state
