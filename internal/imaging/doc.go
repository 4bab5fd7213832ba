// Package imaging loads page images and renders the diagnostic images
// returned by the MCP tools.
//
// # Loading
//
// ImageCache decodes PNG, JPEG and GIF files once and keeps them keyed by
// path. LoadImageInfo and GetDimensions describe a cached image.
//
// # Regions
//
// Analyses can be restricted to a Region, given either by coordinates or
// by name (NamedRegion: "top-half", "center", ...). CropRegion returns the
// region as a new image whose origin is (0, 0); results computed on it are
// expressed in region coordinates.
//
// # Diagnostic Rendering
//
//   - DistanceHeatmap: distance table as an HCL color gradient
//   - BoundaryOverlay: watershed lines painted over the page
//   - DrawBoxes: match candidates outlined on the page
//
// EncodePNG turns any of them into a base64 PNG for JSON responses.
//
// # Coordinate System
//
// All pixel coordinates are 0-based, with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. For regions, (x1,y1) is
// inclusive and (x2,y2) is exclusive.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Rendering functions never modify
// their inputs and may be called concurrently.
package imaging
