// Package episode guesses episode numbers from fansub release filenames.
package episode
