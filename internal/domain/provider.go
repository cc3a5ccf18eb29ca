package domain

// ImageGenerationParams is a single image request to the provider
type ImageGenerationParams struct {
	Prompt  string
	Model   string
	Size    string
	Quality string
}

// GeneratedImage carries whatever the provider returned for an image.
// Depending on the model the payload is a fetchable URL or inline base64.
type GeneratedImage struct {
	URL     string
	B64JSON string
}

// ConversationRequest is one turn sent to the conversational endpoint
type ConversationRequest struct {
	Model              string
	Input              string
	PreviousResponseID string
	ImageSize          string
	ImageQuality       string
}

// ConversationReply is the provider's answer to one turn
type ConversationReply struct {
	ResponseID string
	Items      []OutputItem
}

// OutputItem is one entry of a provider reply: TextOutput or ImageGenerationOutput
type OutputItem interface {
	outputItem()
}

// TextOutput is a plain-text segment of a reply
type TextOutput struct {
	Text string
}

// ImageGenerationOutput is the result of the image generation tool.
// Result holds base64 image data and is empty when the call produced nothing.
type ImageGenerationOutput struct {
	ID     string
	Status string
	Result string
}

func (TextOutput) outputItem()            {}
func (ImageGenerationOutput) outputItem() {}
