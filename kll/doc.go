// Package kll is a streaming quantile sketch with lazy compaction and
// near-optimal accuracy per retained item.
//
// Given a single-pass stream of comparable numeric values, a Sketch
// answers approximate quantile(rank) and rank(value) queries, plus
// derived CDF/PMF over user-supplied split points, with a normalized
// rank error bounded at 99% confidence by GetNormalizedRankError.
//
// Reference: https://arxiv.org/abs/1603.05346 "Optimal Quantile
// Approximation in Streams". See also
// https://datasketches.apache.org/docs/KLL/KLLSketch.html.
//
// A Sketch is parameterized by its element type T (float32 or
// float64) and, independently, by its backing storage: heap-owned
// (NewHeap), or a view over an externally owned byte region
// (NewDirect, Wrap, Heapify). A single sketch instance is not safe
// for concurrent use; merging is a caller-serialized operation.
package kll
