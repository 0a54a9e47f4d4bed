// Package api implements the HTTP surface of the gateway: the public
// marketing pages, the admin back office, and the JSON API for sessions,
// users, contacts, and projects.
//
// Every request passes through the access middleware before reaching a
// handler here, so handlers can assume classification, session resolution,
// and global API rate limiting have already happened. Per-resource role
// guards and the login/signup limiters are applied per route on top of that.
package api
