// Package batch supports tools that accept one ID or a list of IDs,
// such as trashing or labeling several messages at once. Each item is
// processed independently and failures do not abort the rest of the
// batch; the aggregated result reports per-item status.
package batch
