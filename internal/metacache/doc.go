// Package metacache persists fetched AniList metadata in a local SQLite
// database so repeat runs don't hammer the API.
package metacache
