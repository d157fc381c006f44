package batch

import (
	"fmt"
	"path/filepath"

	"github.com/Faultbox/segrender/internal/semantic"
	"github.com/Faultbox/segrender/pkg/formats"
)

// Paths locates the dataset inputs and the image output.
type Paths struct {
	States    string // directory of {scan}_{viewpoint}_state.json
	Scans     string // Matterport scans root
	OutputDir string
}

// RegionTablePath returns the panorama-to-region table of a scan.
func (p Paths) RegionTablePath(scanID string) string {
	return filepath.Join(p.Scans, scanID, "house_segmentations", "panorama_to_region.txt")
}

// StatePath returns the state file of a viewpoint.
func (p Paths) StatePath(scanID, viewpointID string) string {
	return filepath.Join(p.States, formats.StateFileName(scanID, viewpointID))
}

// RegionRequest returns the coloring inputs and cache path of a region.
func (p Paths) RegionRequest(scanID, regionID string) semantic.Request {
	dir := filepath.Join(p.Scans, scanID, "region_segmentations")
	base := fmt.Sprintf("region%s", regionID)
	return semantic.Request{
		MeshPath:      filepath.Join(dir, base+".ply"),
		SegGroupsPath: filepath.Join(dir, base+".semseg.json"),
		FaceSegsPath:  filepath.Join(dir, base+".fsegs.json"),
		OutputPath:    filepath.Join(dir, base+"_color.ply"),
	}
}
