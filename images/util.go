package images

import (
	"crypto/md5"
	"fmt"

	"gocv.io/x/gocv"
)

// ComputeMatChecksum generates a deterministic checksum of a Mat's pixel data,
// used to compare masks and frames across processing passes.
//
// Arguments:
// - mat: The Mat to compute checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string, or "empty" for an empty Mat.
//
// Example:
//
// ```go
//
//	before := ComputeMatChecksum(mask.Mat())
//	refined, _ := refiner.Refine(mask)
//	changed := ComputeMatChecksum(refined.Mat()) != before
//
// ```
func ComputeMatChecksum(mat gocv.Mat) string {
	if mat.Empty() {
		return "empty"
	}

	data, err := mat.DataPtrUint8()
	if err != nil {
		// Non-contiguous or non-8-bit data: hash a contiguous clone instead.
		clone := mat.Clone()
		defer clone.Close()
		data = clone.ToBytes()
	}
	hash := md5.New()
	hash.Write(data)
	return fmt.Sprintf("%x", hash.Sum(nil))
}

// MaskChecksum is ComputeMatChecksum for a Mask.
func MaskChecksum(mask *Mask) string {
	if mask == nil {
		return "empty"
	}
	return ComputeMatChecksum(mask.mat)
}
