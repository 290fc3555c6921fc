// Package authstore holds the observable authentication state: user
// identity, access token, and role flags. Any number of subscribers can
// watch transitions; none of Login, Logout, or Init ever returns an error,
// since every failure path resolves to a well-defined state instead.
//
// The store drives the silent re-authentication protocol on process start
// (Init), performs optimistic logout (local state clears before the network
// call resolves), and mirrors the session snapshot into durable storage so
// role flags survive a restart without a server round trip.
package authstore
