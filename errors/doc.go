/*
Package errors implements the error kinds surfaced by the wallet program.

Every failure returned by this module wraps one of the root errors declared
here. Root errors carry a stable numeric code so that the host boundary can
map any failure to a code without string matching. Use Wrap and Wrapf to add
context while preserving the root cause, and the root error's Is method to
test an error's kind across any number of wrapping layers.
*/
package errors
