// Package ledger is a client of a remote ledger database.
/*
Units of work run in transactions on pooled sessions. Every transaction keeps
a running digest of the statements it executed, and the ledger checks it at
commit. Transactions which fail with optimistic concurrency conflicts or with
transient server failures are retried as a whole.
*/
package ledger
