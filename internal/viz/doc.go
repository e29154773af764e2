// Package viz renders heat checkpoints: colored terminal heat maps and
// profiles for the local visualize step, PNG and SVG images, and a Bubble
// Tea progress view for runs in progress.
package viz
