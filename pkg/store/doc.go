// Package store provides the document persistence layer for the back office:
// admin users, contact submissions, and projects.
//
// Two backends exist: MongoStore for production and MemoryStore for local
// development and tests. Both satisfy the composed Store interface.
package store
