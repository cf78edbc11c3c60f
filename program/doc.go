/*
Package program implements the weighted multisignature wallet.

A wallet record maps owner identities to weights. Any state change or
forwarded action must be co-signed by owners whose combined weight clears the
configured minimum, counted by weight rather than by head. The only exception
is the very first owner change, which initializes the record and instead
requires the supplied owner set itself to clear the threshold.

Requests arrive as a tag byte followed by the operation's fields, together
with the host-resolved account list. Account layout conventions follow the
operation: owner changes and forwards put the wallet record first (forwards
additionally expect the derived authority and the fee paying caller next);
staging operations that touch no wallet state take the slot first followed by
its owner, while append and replay put the wallet record in front of those.

Actions too large for one request are assembled through a staging slot: claim
the slot, append descriptor fragments at caller chosen offsets, then replay
the whole buffer in one request. Replay executes each staged descriptor under
the wallet's derived authority and reclaims the slot's storage to its owner.
*/
package program
