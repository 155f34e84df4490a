package decode

// Container magic numbers.
var (
	magicRIFF = []byte("RIFF")
	magicWAVE = []byte("WAVE")
	magicFLAC = []byte("fLaC")
	magicID3  = []byte("ID3")
	magicOgg  = []byte("OggS")
	magicFtyp = []byte("ftyp")
)

const (
	// Byte offsets inside a RIFF header.
	riffFormOffset = 8
	riffHeaderLen  = 12

	// ISO BMFF boxes carry "ftyp" after the 4-byte box size.
	ftypOffset = 4

	// ID3v2 tag header: "ID3", version, flags, then a 28-bit syncsafe
	// size that excludes the header and the optional footer.
	id3HeaderLen    = 10
	id3FlagsOffset  = 5
	id3SizeOffset   = 6
	id3SyncsafeBits = 7
	id3SyncsafeMask = 0x7F
	id3FooterFlag   = 0x10

	// MPEG audio frame sync: 11 set bits; the two layer bits follow the
	// version bits. Layer 00 is reserved in MPEG audio and used by ADTS AAC.
	mpegSyncByte     = 0xFF
	mpegSyncMask     = 0xE0
	mpegLayerShift   = 1
	mpegLayerMask    = 0x03
	mpegLayerADTS    = 0x00
	minSniffBytes    = 4
	wavFormatPCM     = 1
	bitsPerByte      = 8
	unsignedPCMBits  = 8
	unsignedPCMShift = 128

	// go-mp3 always yields 16-bit little-endian stereo.
	mp3Channels       = 2
	mp3BytesPerSample = 2
	mp3BytesPerFrame  = mp3Channels * mp3BytesPerSample
	mp3BitDepth       = 16
)
