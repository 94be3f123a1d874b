package models

import "fmt"

// OutputClass represents one label produced by a model.
type OutputClass struct {
	// The integer index returned by the model.
	Index int
	// The human-readable label.
	Name string
}

// OutputClassSet ties a family to its full list of labels.
type OutputClassSet struct {
	// Class set identifier.
	Style ModelFamily
	// Classes that are supported and mappable.
	Classes []OutputClass
	// nameToIdx for fast lookup by name
	nameToIdx map[string]int
}

// Len returns the number of labels in the set.
func (s *OutputClassSet) Len() int {
	return len(s.Classes)
}

// IndexOf returns the index of the label called name.
func (s *OutputClassSet) IndexOf(name string) (int, error) {
	idx, ok := s.nameToIdx[name]
	if !ok {
		return -1, fmt.Errorf("name %q not found in style %q", name, s.Style)
	}
	return idx, nil
}

func (s *OutputClassSet) buildNameIndex() {
	s.nameToIdx = make(map[string]int, len(s.Classes))
	for _, c := range s.Classes {
		s.nameToIdx[c.Name] = c.Index
	}
}

// PascalVOCClasses is the 20 Pascal VOC classes + "__background__" at index 0.
// Semantic segmentation models trained on VOC emit one score plane per entry.
var PascalVOCClasses = OutputClassSet{
	Style: ModelFamilyVOC,
	Classes: []OutputClass{
		{0, "__background__"},
		{1, "aeroplane"},
		{2, "bicycle"},
		{3, "bird"},
		{4, "boat"},
		{5, "bottle"},
		{6, "bus"},
		{7, "car"},
		{8, "cat"},
		{9, "chair"},
		{10, "cow"},
		{11, "diningtable"},
		{12, "dog"},
		{13, "horse"},
		{14, "motorbike"},
		{15, "person"},
		{16, "pottedplant"},
		{17, "sheep"},
		{18, "sofa"},
		{19, "train"},
		{20, "tvmonitor"},
	},
}

// COCOKeypoints is the 17-joint COCO body layout, in the order single-pose
// estimators such as MoveNet emit them.
var COCOKeypoints = OutputClassSet{
	Style: ModelFamilyCOCOKeypoints,
	Classes: []OutputClass{
		{0, "nose"},
		{1, "left_eye"},
		{2, "right_eye"},
		{3, "left_ear"},
		{4, "right_ear"},
		{5, "left_shoulder"},
		{6, "right_shoulder"},
		{7, "left_elbow"},
		{8, "right_elbow"},
		{9, "left_wrist"},
		{10, "right_wrist"},
		{11, "left_hip"},
		{12, "right_hip"},
		{13, "left_knee"},
		{14, "right_knee"},
		{15, "left_ankle"},
		{16, "right_ankle"},
	},
}

func init() {
	PascalVOCClasses.buildNameIndex()
	COCOKeypoints.buildNameIndex()
}
