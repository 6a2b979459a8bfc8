/*
Package custody keeps the balances of the accounts a wallet moves value
between, and provides the default external action of an executed
proposal.

Amounts are a single unsigned quantity. Every mutation is checked for
overflow and for sufficient funds before anything is written.
*/
package custody
