/*
Package wallet defines the host-boundary types shared by the weighted
multisignature wallet program.

The host execution environment resolves every request into a list of
participant accounts before the program runs, and supplies the primitive used
to forward an instruction to another program under the wallet's derived
authority. This package holds those shared value types and interfaces; the
program logic itself lives in the program subpackage.
*/
package wallet
