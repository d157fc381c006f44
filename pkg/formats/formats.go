// Package formats provides readers and writers for the Matterport3D files
// consumed by the renderer: PLY meshes, face segmentations, segment groups,
// color tables, region lookup tables, id manifests and camera state files.
package formats
