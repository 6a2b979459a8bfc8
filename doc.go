/*

Package threshold defines interfaces used throughout the wallet, such as: storage,
addresses and the logging context.
The wallet lets a fixed set of principals jointly authorize actions: an action
proposed by one principal runs only after at least threshold distinct principals
confirmed it, runs at most once, and leaves no trace in the state if it fails.

Look into the x/ packages for the components (principals, proposals, execution,
events, custody) and into app for the operation surface that ties them together.

*/

package threshold
