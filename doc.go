// Package brokerage computes the tax-lot state of brokerage accounts by
// replaying their transaction ledgers. It is designed to be local-first and
// auditable: the plain-text ledgers are the single source of truth, and
// every figure can be recomputed from them.
//
// The core functionalities include:
//   - Ledger Replay: Processing dated transactions (buys, sells, dividends,
//     interest, deposits, symbol changes, splits and spinoffs) into open
//     lots, completed lots and cash, with first-in first-out lot matching.
//   - Wash Sales: Matching losing sales against purchases within the 30-day
//     window, deferring the disallowed loss into the replacement lot's cost
//     basis and carrying the holding period over.
//   - Options: Decoding OCC option symbols and folding exercised or assigned
//     contracts into the stock leg's cost basis.
//   - Accounts: Combining several account ledgers, replaying transfers of
//     positions between them, into one merged view.
//   - Reports: JSON reports of the account state, of a tax year and of the
//     full trading history, plus a cached daily equity curve valued from
//     per-day quote files.
//
// This package serves as the foundational logic for the `bkr` command-line
// tool and the HTTP reporting API.
package brokerage
