/*
Package inheritance implements digital inheritance plans.

An owner creates a plan, funds its escrow and registers beneficiaries and
validators. Validators confirm the death of the owner. Once the number of
distinct confirmations reaches the quorum chosen at creation, the plan is
death confirmed and its escrow can be distributed exactly once to the
beneficiaries. Until distribution the owner may cancel the plan and take the
escrow back.

Each owner has at most one live plan, stored under the owner address. All
value released from an escrow is credited through the cash extension.
*/
package inheritance
