// Package detection locates music symbols by sliding distance templates over
// a distance table.
//
// # Matching
//
// Search evaluates one template at every placement that keeps it inside the
// table and returns the placements scoring at most a threshold.
// SearchDescriptor does the same with all variants of a shape descriptor and
// keeps the best variant per placement.
//
// Scores are mean squared residuals between the distances observed in the
// image and the distances a perfect symbol would exhibit, in squared pixels.
// Thresholds passed to the search functions are therefore squared
// distances too: 0.5 accepts an average deviation of about 0.7 pixel.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
//
// Placements are reported by the template top-left corner. The scanned
// range is x in [0, W-w) and y in [0, H-h): the last row and column where
// the template would exactly touch the table border are not evaluated.
//
// # Scale
//
// EstimateScale derives the staff interline from vertical run lengths of a
// binarized page, so callers can size templates without prior knowledge.
//
// # Performance Considerations
//
// Each placement costs one read per key point. Key point offsets are turned
// into linear deltas once per search, and the inner loop is specialized per
// table storage type. Cropping to a region of interest first is the
// simplest way to bound the work on large pages.
package detection
