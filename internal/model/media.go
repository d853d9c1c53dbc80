package model

// MediaHandle is the working unit threaded through a pipeline: the bytes
// being transformed and the metadata describing them.
type MediaHandle struct {
	Body     []byte
	Metadata Metadata
}

// NewMediaHandle builds a handle owning a copy of body.
func NewMediaHandle(body []byte, metadata Metadata) MediaHandle {
	return MediaHandle{Body: append([]byte(nil), body...), Metadata: metadata}
}

// MediaGroupHandle is an original plus the derivatives produced for it in
// one upload or download.
type MediaGroupHandle struct {
	Media         MediaHandle
	DerivedMedias []MediaHandle
}

// NewMediaGroupHandle wraps media with no derivatives yet.
func NewMediaGroupHandle(media MediaHandle) *MediaGroupHandle {
	return &MediaGroupHandle{Media: media}
}

// AddDerivedMedia records d both in the group and in the parent's metadata.
func (g *MediaGroupHandle) AddDerivedMedia(d MediaHandle) {
	g.Media.Metadata.AppendDerivedMedia(d.Metadata)
	g.DerivedMedias = append(g.DerivedMedias, d)
}
