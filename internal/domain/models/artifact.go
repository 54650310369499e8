package models

// ArtifactBlobs is the persisted form of a fitted model: model, scaler and the newline-delimited feature list.
type ArtifactBlobs struct {
	Model    []byte
	Scaler   []byte
	Features []byte
}
