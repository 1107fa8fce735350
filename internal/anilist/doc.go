// Package anilist fetches anime metadata from the AniList GraphQL API.
//
// Lookups are batched into a single query using per-ID field aliases, which
// keeps a full season's worth of shows inside AniList's rate limit.
package anilist
