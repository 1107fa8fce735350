// Command animutools is a grab bag of personal video encoding utilities:
// anime encodes with burned-in subtitles, bulk episode batches, mosaic grids
// for simulcast watching, torrent search, and poster atlas generation.
package main
