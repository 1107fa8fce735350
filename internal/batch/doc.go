// Package batch plans and runs bulk encodes over a directory of episodes.
package batch
