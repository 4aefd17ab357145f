// Package jitter turns rigid-body motion into line-of-sight jitter statistics.
//
// The pipeline stacks per-channel motion matrices column-wise, applies a
// linear transfer matrix, converts the product from radians to
// milliarcseconds, and reports the per-axis standard deviation after a
// warm-up segment:
//
//	jitter = T · Mᵀ · RadToMas
//	std    = std(jitter[:, skip:], axis=1)
//
// The scale is applied after the product so results match the reference
// analysis to the last bit.
package jitter
