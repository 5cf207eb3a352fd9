// Package loader owns the Postgres side of a load run: connecting with
// pooled connections, creating the destination table, and bulk-loading the
// staged rows through the COPY protocol.
//
// The loading contract is deliberately blunt:
//   - EnsureTable creates the two-column mapping table and treats
//     "table already exists" as success, so repeated loads reuse it
//   - Load replaces the entire table inside one transaction: DELETE
//     everything, then stream the staging file through COPY
//
// Design decision: the table is replaced, not merged. Each mapping dataset
// is a full snapshot of one crawl month, so an upsert would only preserve
// rows the snapshot no longer vouches for. Running the same load twice
// leaves the table in an identical state.
//
// Table names are quoted with pgx.Identifier everywhere they are spliced
// into SQL. Derived names such as "2020_nov" start with a digit and would
// not survive as bare identifiers.
package loader
