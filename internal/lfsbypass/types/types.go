package types

// `json:"..."` tags match the on-disk manifest format shared with the server.

// ChunkDescriptor describes one fixed-size segment of an original file.
type ChunkDescriptor struct {
	// Path is the chunk file name, relative to the manifest's directory.
	Path  string `json:"path"`
	Start int64  `json:"start"`
	Size  int64  `json:"size"`
	Hash  string `json:"hash"`
}

// End returns the exclusive end offset of the chunk within the original file.
func (c ChunkDescriptor) End() int64 {
	return c.Start + c.Size
}

// Manifest binds a set of chunk files back to one logical original file.
// Chunks are listed in placement order.
type Manifest struct {
	FileName     string            `json:"fileName"`
	OriginalSize int64             `json:"originalSize"`
	Hash         string            `json:"hash"`
	Chunks       []ChunkDescriptor `json:"chunks"`
}

// Chunk is a segment produced by the splitter. The Data field is not serialized.
type Chunk struct {
	Start int64  `json:"start"`
	Hash  string `json:"hash"`
	Data  []byte `json:"-"`
}
