// Package input downloads the ISBN list and reads its ISBN13 column.
//
// The default source is a Google Drive direct-download link. Drive answers
// large files with an HTML confirmation page instead of the file; the
// Downloader recognises that page and submits its form to get the file.
package input
