/*
Package tracker implements the core of a multi-object visual tracker: frame
by frame it maintains a set of tracked objects and assimilates the newly
detected regions into it.

Each Update call fuses up to five similarity signals (prediction ellipse
distance, rectangle mismatch, IoU, colour histograms and learned appearance
embeddings) into one cost matrix, solves the assignment optimally, gates the
result against a distance threshold and then manages the track lifecycle:
unassigned regions start new tracks, tracks skipped for too long, parked for
too long or gone out of frame are retired, and every surviving track runs
its motion filter update in parallel.

Detection itself is out of scope, callers feed regions from whatever
detector they run along with the current frame.
*/
package tracker
