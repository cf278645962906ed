package videos

import (
	"bytes"
	"testing"
)

func TestDetectMIME(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"mp4 ftyp", []byte("\x00\x00\x00\x20ftypisom\x00\x00\x02\x00"), MIMEMP4},
		{"mp4 box 0x18", []byte{0x00, 0x00, 0x00, 0x18, 0x01, 0x02, 0x03, 0x04}, MIMEMP4},
		{"quicktime ftyp", []byte("\x00\x00\x00\x14ftypqt  \x20\x05"), MIMEQuickTime},
		{"quicktime brand", []byte("\x00\x00\x00\x20ftypqt  \x00\x00"), MIMEQuickTime},
		{"quicktime moov", []byte("\x00\x00\x01\x00moov"), MIMEQuickTime},
		{"avi", []byte("RIFF\x10\x00\x00\x00AVI LIST"), MIMEAVI},
		{"wav", []byte("RIFF\x10\x00\x00\x00WAVEfmt "), mimeUnknown},
		{"webm", append([]byte{0x1a, 0x45, 0xdf, 0xa3, 0x9f, 0x42, 0x82, 0x84}, []byte("webm")...), MIMEWebM},
		{"matroska", append([]byte{0x1a, 0x45, 0xdf, 0xa3, 0x9f, 0x42, 0x82, 0x88}, []byte("matroska")...), MIMEMatroska},
		{"unknown", []byte("hello world"), MIMEMP4},
		{"empty", nil, MIMEMP4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectMIME(tc.data); got != tc.want {
				t.Fatalf("DetectMIME = %q want %q", got, tc.want)
			}
		})
	}
}

func TestDetectMIMEInspectsOnlyLeadingBytes(t *testing.T) {
	data := append([]byte{0x1a, 0x45, 0xdf, 0xa3}, bytes.Repeat([]byte{0}, SniffLen)...)
	data = append(data, []byte("webm")...)
	if got := DetectMIME(data); got != MIMEMatroska {
		t.Fatalf("expected doctype beyond sniff window to be ignored, got %q", got)
	}
}

func TestIsVideoMIME(t *testing.T) {
	for _, m := range []string{MIMEMP4, MIMEQuickTime, MIMEAVI, MIMEMatroska, MIMEWebM} {
		if !IsVideoMIME(m) {
			t.Fatalf("expected %s to be a video type", m)
		}
	}
	for _, m := range []string{"video/avi", "audio/wav", mimeUnknown, ""} {
		if IsVideoMIME(m) {
			t.Fatalf("expected %q to be rejected", m)
		}
	}
}
