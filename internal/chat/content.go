package chat

import "fmt"

type ContentKind string

const (
	ContentText      ContentKind = "text"
	ContentPhoto     ContentKind = "photo"
	ContentVideo     ContentKind = "video"
	ContentAudio     ContentKind = "audio"
	ContentVoice     ContentKind = "voice"
	ContentDocument  ContentKind = "document"
	ContentSticker   ContentKind = "sticker"
	ContentAnimation ContentKind = "animation"
)

// Content is one relayed message: either text or a media reference that is
// re-sent to the partner by file id.
type Content struct {
	Kind    ContentKind
	Text    string
	FileID  string
	Caption string
}

func (c Content) IsMedia() bool {
	return c.Kind != ContentText
}

// LogLine flattens the content for conversation logs and admin mirroring.
func (c Content) LogLine() string {
	switch c.Kind {
	case ContentText:
		return c.Text
	case ContentPhoto:
		return withCaption("[Фото]", c.Caption)
	case ContentVideo:
		return withCaption("[Відео]", c.Caption)
	case ContentAudio:
		return withCaption("[Аудіо]", c.Caption)
	case ContentVoice:
		return "[Голосове повідомлення]"
	case ContentDocument:
		return withCaption("[Документ]", c.Caption)
	case ContentSticker:
		return "[Стікер]"
	case ContentAnimation:
		return withCaption("[GIF]", c.Caption)
	default:
		return fmt.Sprintf("[%s]", c.Kind)
	}
}

func withCaption(label, caption string) string {
	if caption == "" {
		return label
	}
	return label + " " + caption
}
