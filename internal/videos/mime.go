package videos

import "bytes"

// SniffLen is how many leading bytes DetectMIME inspects.
const SniffLen = 2048

const (
	MIMEMP4       = "video/mp4"
	MIMEQuickTime = "video/quicktime"
	MIMEAVI       = "video/x-msvideo"
	MIMEMatroska  = "video/x-matroska"
	MIMEWebM      = "video/webm"
	mimeUnknown   = "application/octet-stream"
)

var videoMIMETypes = map[string]struct{}{
	MIMEMP4:       {},
	MIMEQuickTime: {},
	MIMEAVI:       {},
	MIMEMatroska:  {},
	MIMEWebM:      {},
}

var (
	sigQuickTimeFtyp = []byte("\x00\x00\x00\x14ftypqt")
	sigMP4Box18      = []byte{0x00, 0x00, 0x00, 0x18}
	sigMP4Box1C      = []byte{0x00, 0x00, 0x00, 0x1c}
	sigRIFF          = []byte("RIFF")
	sigAVI           = []byte("AVI ")
	sigEBML          = []byte{0x1a, 0x45, 0xdf, 0xa3}
	qtBrand          = []byte("qt  ")
)

var quickTimeAtoms = [][]byte{[]byte("moov"), []byte("mdat"), []byte("wide"), []byte("free")}

// DetectMIME infers a container MIME type from the leading bytes of data.
// Unrecognised data is reported as video/mp4; RIFF data that is not AVI is
// reported as application/octet-stream.
func DetectMIME(data []byte) string {
	head := data
	if len(head) > SniffLen {
		head = head[:SniffLen]
	}

	switch {
	case bytes.HasPrefix(head, sigQuickTimeFtyp):
		return MIMEQuickTime
	case len(head) >= 8 && bytes.Equal(head[4:8], []byte("ftyp")):
		if len(head) >= 12 && bytes.Equal(head[8:12], qtBrand) {
			return MIMEQuickTime
		}
		return MIMEMP4
	case bytes.HasPrefix(head, sigMP4Box18), bytes.HasPrefix(head, sigMP4Box1C):
		return MIMEMP4
	case bytes.HasPrefix(head, sigRIFF):
		if len(head) >= 12 && bytes.Equal(head[8:12], sigAVI) {
			return MIMEAVI
		}
		return mimeUnknown
	case bytes.HasPrefix(head, sigEBML):
		if bytes.Contains(head, []byte("webm")) {
			return MIMEWebM
		}
		return MIMEMatroska
	}

	if len(head) >= 8 {
		for _, atom := range quickTimeAtoms {
			if bytes.Equal(head[4:8], atom) {
				return MIMEQuickTime
			}
		}
	}
	return MIMEMP4
}

// IsVideoMIME reports whether mimeType is an accepted video container.
func IsVideoMIME(mimeType string) bool {
	_, ok := videoMIMETypes[mimeType]
	return ok
}
