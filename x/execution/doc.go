/*
Package execution runs the action of a proposal once enough principals
confirmed it.

Execution is a two phase protocol. The proposal is first marked as
executed in a staging cache of the store, then the action runs against
that staging cache. Only when the action succeeds is the cache written
down, together with the Execute event. When it fails, the cache is
dropped and the proposal reads exactly as before the attempt.

While an action runs, its proposal is registered as in flight. Any call
made for that proposal before the attempt is decided, including calls
made by the action itself, is rejected with ErrAlreadyExecuted.

The context handed to the action carries a frame owned by the engine.
Engine.Staged finds the staging store of the engine in it, so that calls
back into the same wallet join the staged execution, while calls into
other wallets do not.
*/
package execution
