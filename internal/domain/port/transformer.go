package port

import "context"

type TransformResult struct {
	// EntryCount is the number of files packaged into the archive.
	EntryCount    int
	VideoDuration float64
}

// ArtifactTransformer converts a local input file into a packaged archive
// at archivePath. Tool failure, empty output and archive failure all
// surface as a single error.
type ArtifactTransformer interface {
	Transform(ctx context.Context, inputPath, archivePath string) (*TransformResult, error)
}
