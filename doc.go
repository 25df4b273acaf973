// Build one image, patch it once
//
// Low-level code sometimes needs a different instruction sequence depending
// on which CPU it ends up running on: a vendor erratum, an optional ISA
// extension. This package lets an image carry the generic sequence plus any
// number of replacements, and rewrites the image in place exactly once, at
// load time, so only the right one is live.
//
// A Builder lays out the default code, the replacement code and a table of
// 16-byte entries describing each site. Apply walks that table against a set
// of detected facts and copies the winning replacement over the default.
// Likely and Unlikely give a boolean check whose answer is the patched
// instruction itself.
//
// Limitations:
//   - Apply performs no locking. Nothing may execute the image while it runs.
//   - Replacement code must be position independent; it is copied, not
//     relocated.
//   - Live loading only works on Unix.
package alternative
