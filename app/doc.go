/*
Package app assembles the principal registry, the proposal store, the
confirmation ledger, the execution engine and the custody bank into a
Wallet, the operation surface of a threshold wallet.

Every operation of a Wallet is one unit of atomicity. Operations are
serialized by a single lock and each runs in its own cache wrap of the
store, which is written down when the operation succeeds and dropped
when it fails.

An executed action may call back into the wallet, using the context it
was given. Such a call runs inside the staged unit of the execution and
is rolled back with it. An action must not call the wallet with any
other context, as the wallet is locked while it runs.
*/
package app
