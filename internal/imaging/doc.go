// Package imaging provides the raster primitives shared by the recognition pipelines.
//
// This package implements image decoding, HSV color isolation, Canny edge maps,
// opaque-region cropping, normalized cross-correlation template matching, pixel
// difference masks, and bounding-box annotation. All operations work with
// standard Go image.Image types and use a coordinate system where (0,0) is at the
// top-left corner, X increases rightward, and Y increases downward.
//
// # Purity
//
// Every operation is a pure function of its inputs: source images are never
// modified, results are freshly allocated, and there is no randomness or state
// carried between calls. Operations can run concurrently on different images.
//
// # Color Isolation
//
// ColorFilter keeps the pixels whose HSV value falls inside at least one of its
// ranges and paints every other pixel solid white. HSV uses the usual 8-bit
// discretization:
//   - H: 0-180 (degrees / 2)
//   - S: 0-255
//   - V: 0-255
//
// Range bounds are inclusive at both ends.
//
// # Bounding Boxes
//
// BBox uses inclusive corner coordinates: (X1,Y1) is the top-left pixel and
// (X2,Y2) the bottom-right pixel of the box.
//
// # Error Handling
//
// Malformed image bytes are reported as errs.KindDecode, incompatible image
// sizes as errs.KindDimension.
package imaging
