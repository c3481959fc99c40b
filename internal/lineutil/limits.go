package lineutil

// LINE API Character Limits (Rune count)
// References: https://developers.line.biz/en/reference/messaging-api/#template-messages
const (
	MaxTextMessageLength = 5000 // Text message max content length
	MaxAltTextLength     = 400  // Template message alt text length
	MaxActionLabelLength = 20   // Action label length

	// Template Message Limits
	MaxTemplateTitleLength   = 40  // Buttons/Carousel template title
	MaxTemplateTextNoImage   = 160 // Buttons/Carousel template text without image or title
	MaxTemplateTextWithImage = 60  // Buttons/Carousel template text with image or title
	MaxCarouselColumnCount   = 10  // Max columns in a carousel
	MaxTemplateActionCount   = 4   // Max actions per template (buttons)
	MaxCarouselActionCount   = 3   // Max actions per carousel column
	MaxURILength             = 1000
)
