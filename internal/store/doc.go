// Package store manages the shared coordination database backed by SQLite.
//
// Every coordination entity lives here: agents, tasks, messages,
// notifications, subscriptions, the activity log, heartbeat logs, and daily
// summaries. The store is the only channel components communicate through;
// there is no process-to-process signalling.
//
// Sessions follow a connect-work-disconnect discipline: each invocation
// opens its own connection, enables WAL journaling, foreign keys, and a
// bounded busy timeout, does its reads and writes, and closes. Multi-row
// effects that must be observed atomically (consuming a notification batch,
// upserting a daily summary) run inside explicit transactions.
package store
