// Package detection locates objects in CAPTCHA images with an anchor-free
// YOLOX-style detector.
//
// The detector model is reached through engine.Engine. This package prepares
// its input and decodes its output:
//
//  1. Letterbox: scale the image to fit a 416×416 canvas (gain =
//     min(416/w, 416/h)), paste it at the top-left corner over a (114,114,114)
//     background and emit raw 0-255 values as a (1, 3, 416, 416) CHW tensor.
//  2. Decode: the model emits one row [cx, cy, w, h, objectness, class] per
//     grid cell across strides 8, 16 and 32 (3549 rows in total). Rows scoring
//     below 0.1 are dropped; the rest are mapped back to image coordinates.
//  3. NMS: greedy suppression, highest score first, dropping any box whose
//     IoU with a kept box exceeds 0.45.
//  4. Clamp: corners are clamped to the image and truncated to integers.
//
// # Coordinate System
//
// Boxes use inclusive corners in the coordinate frame of the original image:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// IoU follows the "+1" pixel convention, so a box from x1 to x2 is x2-x1+1
// pixels wide.
package detection
