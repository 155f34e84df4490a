package encode

const (
	bitDepth16 = 16
	bitDepth24 = 24

	monoChannels = 1
	wavFormatPCM = 1
)
