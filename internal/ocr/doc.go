// Package ocr turns CAPTCHA images into text with a classification model.
//
// The model itself is opaque: it is reached through engine.Engine and only
// sees a normalized (1, C, H, W) float32 tensor. This package owns everything
// on either side of that call:
//
//   - Charset: the descriptor shipped next to the model (input size, channel
//     count, output vocabulary)
//   - Encode: resize, channel conversion and normalization of the input image
//   - Decode: turning the (T, 1, N) output into per-position probabilities
//   - Range and Restriction: limiting the vocabulary to a subset of tokens
//   - Classifier: the pipeline tying these together
//
// # Normalization
//
// The two bundled models expect every channel mapped through (v/255 - 0.5)/0.5.
// Any other model is treated as custom and gets ImageNet statistics for three
// channels, or (v/255 - 0.456)/0.224 for one. The choice is made once from the
// SHA-256 of the model bytes (see engine.IsCustom).
//
// # Restrictions
//
// A restriction projects every probability row onto a token subset. Tokens
// missing from the charset get a probability of -1 so they can never win the
// arg-max against a real token. Every restriction ends with the empty token.
//
// # Error Handling
//
// Undecodable input is errs.KindDecode, a malformed model output is
// errs.KindShape, a failed inference call is errs.KindEngine, and a missing or
// invalid charset is errs.KindConfiguration.
package ocr
