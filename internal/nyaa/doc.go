// Package nyaa searches the nyaa.si RSS interface for episode torrents and
// matches releases against show titles.
package nyaa
