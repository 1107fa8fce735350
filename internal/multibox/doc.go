// Package multibox builds a poster atlas for seasonal watch parties: one
// packed PNG of every show's cover art plus a JSON sidecar describing each
// show and where its poster sits in the atlas.
package multibox
