package port

// FileWalker lists the source documents under a root directory.
type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// FileReader returns the extracted text of a document. Format parsing
// happens upstream; this core only sees text.
type FileReader interface {
	ReadFile(path string) (string, error)
}
