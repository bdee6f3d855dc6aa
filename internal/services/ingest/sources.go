package ingest

// BytesSource adapts an in-memory buffer to the UploadSource capability.
type BytesSource struct {
	name string
	data []byte
}

func NewBytesSource(name string, data []byte) *BytesSource {
	return &BytesSource{name: name, data: data}
}

func (b *BytesSource) Name() string          { return b.name }
func (b *BytesSource) Read() ([]byte, error) { return b.data, nil }
