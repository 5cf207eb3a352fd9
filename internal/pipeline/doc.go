// Package pipeline executes the stages of a load run in sequence.
//
// A load is a fixed linear pipeline: reduce the input dataset to one row
// per domain, make sure the destination table exists, replace the table
// contents through the COPY protocol, and clean up the staging file. Each
// stage is a Step that receives the accumulated Run record and annotates it
// with what happened.
//
// Design decision: We use a pipeline pattern instead of direct function
// calls because:
//  1. It provides consistent error handling and logging across stages
//  2. It supports cancellation via context between stages
//  3. The executed stage names end up on the Run record for history and
//     reports without each stage knowing about either
//
// The pipeline always stops on the first error: a load that failed to
// reduce has nothing to stage, and a load that failed to stage has nothing
// to copy.
package pipeline
