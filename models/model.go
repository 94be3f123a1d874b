// Package models - Definitions for model output label sets.
package models

// ModelFamily identifies the dataset convention a model's outputs follow.
type ModelFamily string

const (
	// ModelFamilyVOC is the Pascal VOC segmentation family (20 classes + background).
	ModelFamilyVOC ModelFamily = "voc"
	// ModelFamilyCOCOKeypoints is the 17-joint COCO pose family.
	ModelFamilyCOCOKeypoints ModelFamily = "coco-keypoints"
)
