// Package sanitizer normalizes user supplied text before it is validated,
// stored or forwarded to the WhatsApp Cloud API.
//
// All functions are total and idempotent: they never return errors, invalid
// input degrades to an empty string, and applying a function to its own
// output changes nothing.
//
// Normalization includes:
//   - Template parameters: flatten multi-line text into one bounded line
//   - Phone numbers: convert to E.164 format (+[country][number])
//   - Strings: collapse whitespace, trim leading/trailing spaces
package sanitizer
