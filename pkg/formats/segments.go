package formats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Segmentation format errors.
var (
	ErrMissingSegIndices = errors.New("face segmentation has no segIndices")
	ErrDuplicateSegment  = errors.New("segment assigned to more than one group")
)

// FaceSegmentation is the per-face segment assignment of a region mesh
// (regionN.fsegs.json).
type FaceSegmentation struct {
	SceneID    string `json:"sceneId,omitempty"`
	SegIndices []int  `json:"segIndices"`
}

// SegGroup is one semantic object: a label and the segments it covers.
type SegGroup struct {
	ID       int    `json:"id"`
	ObjectID int    `json:"objectId"`
	Label    string `json:"label"`
	Segments []int  `json:"segments"`
}

// SegGroups is the segment-semantics file of a region (regionN.semseg.json).
type SegGroups struct {
	SceneID string     `json:"sceneId,omitempty"`
	Groups  []SegGroup `json:"segGroups"`
}

// CategoryKey selects which SegGroup field is used as the category ID.
type CategoryKey string

// Category key values.
const (
	CategoryByObjectID CategoryKey = "objectId"
	CategoryByGroupID  CategoryKey = "id"
)

// Valid reports whether k is a known key.
func (k CategoryKey) Valid() bool {
	return k == CategoryByObjectID || k == CategoryByGroupID
}

// Category returns the category ID of the group under the given key.
func (g SegGroup) Category(key CategoryKey) int {
	if key == CategoryByGroupID {
		return g.ID
	}
	return g.ObjectID
}

// SegmentCategories builds the segment -> category mapping.
// A segment listed by two groups is an error.
func (s *SegGroups) SegmentCategories(key CategoryKey) (map[int]int, error) {
	out := make(map[int]int)
	for _, g := range s.Groups {
		cat := g.Category(key)
		for _, seg := range g.Segments {
			if prev, ok := out[seg]; ok && prev != cat {
				return nil, fmt.Errorf("%w: segment %d in categories %d and %d", ErrDuplicateSegment, seg, prev, cat)
			}
			out[seg] = cat
		}
	}
	return out, nil
}

// ParseFaceSegmentation parses a face segmentation JSON document.
func ParseFaceSegmentation(data []byte) (*FaceSegmentation, error) {
	var fs FaceSegmentation
	if err := json.Unmarshal(data, &fs); err != nil {
		return nil, err
	}
	if fs.SegIndices == nil {
		return nil, ErrMissingSegIndices
	}
	return &fs, nil
}

// LoadFaceSegmentation reads a face segmentation file.
func LoadFaceSegmentation(path string) (*FaceSegmentation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fs, err := ParseFaceSegmentation(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return fs, nil
}

// ParseSegGroups parses a segment-semantics JSON document.
func ParseSegGroups(data []byte) (*SegGroups, error) {
	var sg SegGroups
	if err := json.Unmarshal(data, &sg); err != nil {
		return nil, err
	}
	return &sg, nil
}

// LoadSegGroups reads a segment-semantics file.
func LoadSegGroups(path string) (*SegGroups, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sg, err := ParseSegGroups(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return sg, nil
}
