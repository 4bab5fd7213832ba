// Package table provides fixed-size 2D integer grids used as the uniform
// storage for gray levels, chamfer distances and region identifiers.
//
// # Storage Variants
//
// A Table is backed by one of three primitive kinds, chosen for the
// memory/range trade-off of the data it holds:
//   - UnsignedByte: 0..255, one byte per cell (gray-level pixels, labels)
//   - Short: signed 16-bit, two bytes per cell (bounded distance fields)
//   - Int: signed 32-bit, four bytes per cell (region ids, generic fields)
//
// Sheet-sized images hold several million pixels, so the storage kind is a
// deliberate choice rather than an incidental one.
//
// # Coordinate System
//
// Cells are addressed by (x, y) with (0, 0) at the top-left corner. Storage
// is row-major: the cell (x, y) lives at index y*width+x of Data().
//
// # Error Handling
//
// Value and SetValue fail fast on out-of-range coordinates by panicking with
// a *BoundsError, the same contract as slice indexing. Hot loops that need to
// skip out-of-range neighbors work on Data() directly and do their own range
// checks.
//
// # Thread Safety
//
// Tables carry no synchronization. One computation owns a table while it
// writes to it; concurrent computations must use distinct tables. Once a
// computation is complete the table may be shared for reading.
package table
