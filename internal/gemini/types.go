package gemini

// ImageInput is one inline image attachment for a generateContent call.
type ImageInput struct {
	Data     []byte
	MimeType string
}
