package semantic

import (
	"errors"
	"fmt"

	"github.com/Faultbox/segrender/pkg/formats"
)

// Coloring errors.
var (
	ErrCategoryOutOfRange = errors.New("category has no entry in the color table")
	ErrUnresolvedSegment  = errors.New("segment belongs to no segment group")
	ErrFaceCountMismatch  = errors.New("face segmentation length does not match face count")
)

// SegmentAssignment resolves faces to categories through their segments.
type SegmentAssignment struct {
	FaceSegments      []int       // face index -> segment ID
	SegmentCategories map[int]int // segment ID -> category ID

	// Unlabeled is used for segments outside every group when >= 0.
	Unlabeled int
}

// NewAssignment builds an assignment from the two region segmentation files.
func NewAssignment(faces *formats.FaceSegmentation, groups *formats.SegGroups, key formats.CategoryKey, unlabeled int) (*SegmentAssignment, error) {
	cats, err := groups.SegmentCategories(key)
	if err != nil {
		return nil, err
	}
	return &SegmentAssignment{
		FaceSegments:      faces.SegIndices,
		SegmentCategories: cats,
		Unlabeled:         unlabeled,
	}, nil
}

// FaceCount returns the number of faces covered.
func (a *SegmentAssignment) FaceCount() int { return len(a.FaceSegments) }

// CategoryOf returns the category of a face.
func (a *SegmentAssignment) CategoryOf(face int) (int, error) {
	seg := a.FaceSegments[face]
	if cat, ok := a.SegmentCategories[seg]; ok {
		return cat, nil
	}
	if a.Unlabeled >= 0 {
		return a.Unlabeled, nil
	}
	return 0, fmt.Errorf("%w: face %d segment %d", ErrUnresolvedSegment, face, seg)
}

// Colors resolves every face to its color in table.
func (a *SegmentAssignment) Colors(table formats.ColorTable) ([][3]uint8, error) {
	out := make([][3]uint8, len(a.FaceSegments))
	for i := range a.FaceSegments {
		cat, err := a.CategoryOf(i)
		if err != nil {
			return nil, err
		}
		c, ok := table.Lookup(cat)
		if !ok {
			return nil, fmt.Errorf("%w: face %d category %d (table has %d)", ErrCategoryOutOfRange, i, cat, len(table))
		}
		out[i] = c
	}
	return out, nil
}
