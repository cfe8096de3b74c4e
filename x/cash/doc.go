/*
Package cash keeps receipts of value credited to accounts by the ledger.

Value released from an escrow (a payout to a beneficiary or a refund to the
owner) is never kept in a shared account. Instead every credit is recorded in
a receipt owned by the pair of the recipient and the source of the value.
The balance of an account is the sum of all its receipts.

Because receipt keys contain the source account, two operations releasing
value from different sources never write to the same key, even if they pay
the same recipient.
*/
package cash
