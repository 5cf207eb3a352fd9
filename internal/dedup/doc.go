// Package dedup reduces mapping datasets to one row per domain.
//
// A mapping dataset may observe the same domain on many days and behind
// many IP addresses. The Reducer folds all of those observations into a
// single (domain, ip) pair per domain using the latest-observation rule:
//
//  1. The first observation of a domain is stored as-is
//  2. A repeat observation with the same IP is skipped without any date
//     parsing, so stale rows with malformed dates cannot break a run
//  3. A repeat observation with a different IP replaces the stored pair
//     only when its date is strictly later; on equal dates the stored
//     (first seen) pair wins
//
// Design decision: observation dates stay strings until rule 3 forces a
// comparison. Datasets are large and same-IP repeats dominate, so parsing
// every date up front would cost time and reject rows whose dates are
// never actually consulted.
package dedup
