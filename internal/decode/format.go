package decode

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Format identifies an audio container.
type Format int

const (
	FormatUnknown Format = iota
	FormatWAV
	FormatMP3
	FormatFLAC
	FormatOGG
	FormatM4A
	FormatAAC
)

var formatNames = map[Format]string{
	FormatUnknown: "unknown",
	FormatWAV:     "wav",
	FormatMP3:     "mp3",
	FormatFLAC:    "flac",
	FormatOGG:     "ogg",
	FormatM4A:     "m4a",
	FormatAAC:     "aac",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return formatNames[FormatUnknown]
}

// Decodable reports whether Decode can produce samples for f.
func (f Format) Decodable() bool {
	return f == FormatWAV || f == FormatMP3 || f == FormatFLAC
}

// SupportedExtensions lists the file extensions accepted at the upload
// boundary, including those that are recognised but not decodable.
func SupportedExtensions() []string {
	return []string{"mp3", "wav", "m4a", "flac", "aac", "ogg"}
}

// Sniff identifies the container from leading magic bytes.
func Sniff(data []byte) Format {
	if len(data) < minSniffBytes {
		return FormatUnknown
	}

	switch {
	case len(data) >= riffHeaderLen && bytes.HasPrefix(data, magicRIFF) &&
		bytes.Equal(data[riffFormOffset:riffHeaderLen], magicWAVE):
		return FormatWAV
	case bytes.HasPrefix(data, magicFLAC):
		return FormatFLAC
	case bytes.HasPrefix(data, magicID3):
		// ID3v2 is mostly found on MP3 but also precedes FLAC and ADTS
		// streams; the payload decides.
		if n := id3v2Len(data); n > 0 && n < len(data) {
			if inner := Sniff(data[n:]); inner != FormatUnknown {
				return inner
			}
		}
		return FormatMP3
	case bytes.HasPrefix(data, magicOgg):
		return FormatOGG
	case len(data) >= ftypOffset+len(magicFtyp) &&
		bytes.Equal(data[ftypOffset:ftypOffset+len(magicFtyp)], magicFtyp):
		return FormatM4A
	case data[0] == mpegSyncByte && data[1]&mpegSyncMask == mpegSyncMask:
		if (data[1]>>mpegLayerShift)&mpegLayerMask == mpegLayerADTS {
			return FormatAAC
		}
		return FormatMP3
	}
	return FormatUnknown
}

// FormatFromHint maps an extension, file name or format name to a Format.
func FormatFromHint(hint string) Format {
	h := strings.ToLower(strings.TrimSpace(hint))
	if ext := filepath.Ext(h); ext != "" {
		h = ext
	}
	h = strings.TrimPrefix(h, ".")

	switch h {
	case "wav", "wave":
		return FormatWAV
	case "mp3", "mpeg":
		return FormatMP3
	case "flac":
		return FormatFLAC
	case "ogg", "oga", "opus":
		return FormatOGG
	case "m4a", "mp4":
		return FormatM4A
	case "aac":
		return FormatAAC
	}
	return FormatUnknown
}

// id3v2Len returns the length of the ID3v2 tag at the start of data,
// header and footer included, or 0 when there is no complete tag header.
func id3v2Len(data []byte) int {
	if len(data) < id3HeaderLen || !bytes.HasPrefix(data, magicID3) {
		return 0
	}
	size := 0
	for _, b := range data[id3SizeOffset:id3HeaderLen] {
		size = size<<id3SyncsafeBits | int(b&id3SyncsafeMask)
	}
	n := id3HeaderLen + size
	if data[id3FlagsOffset]&id3FooterFlag != 0 {
		n += id3HeaderLen
	}
	return n
}

// skipID3v2 returns data without a leading ID3v2 tag.
func skipID3v2(data []byte) []byte {
	if n := id3v2Len(data); n > 0 {
		return data[min(n, len(data)):]
	}
	return data
}
