package domain

import (
	"errors"
	"fmt"
)

// AttachmentKind tags the closed set of attachment variants. The tag is
// what the attachments table stores in its type column.
type AttachmentKind string

const (
	AttachmentKindImage    AttachmentKind = "image"
	AttachmentKindVideo    AttachmentKind = "video"
	AttachmentKindAudio    AttachmentKind = "audio"
	AttachmentKindText     AttachmentKind = "text"
	AttachmentKindDocument AttachmentKind = "document"
)

// ErrUnknownAttachmentKind is returned by DecodeAttachment for a stored tag
// outside the closed variant set.
var ErrUnknownAttachmentKind = errors.New("unknown attachment kind")

// Attachment is a binary payload belonging to exactly one message. Variants
// own their bytes; attachments are never shared across messages.
type Attachment interface {
	Kind() AttachmentKind
	Name() string
	Payload() []byte
}

// ImageAttachment is an image with the URL it was fetched from.
type ImageAttachment struct {
	Filename string
	Data     []byte
	URL      string
}

func (a ImageAttachment) Kind() AttachmentKind { return AttachmentKindImage }
func (a ImageAttachment) Name() string         { return a.Filename }
func (a ImageAttachment) Payload() []byte      { return a.Data }

// VideoAttachment is a video clip with its container format.
type VideoAttachment struct {
	Filename string
	Data     []byte
	Format   string
}

func (a VideoAttachment) Kind() AttachmentKind { return AttachmentKindVideo }
func (a VideoAttachment) Name() string         { return a.Filename }
func (a VideoAttachment) Payload() []byte      { return a.Data }

// AudioAttachment is an audio clip with its container format.
type AudioAttachment struct {
	Filename string
	Data     []byte
	Format   string
}

func (a AudioAttachment) Kind() AttachmentKind { return AttachmentKindAudio }
func (a AudioAttachment) Name() string         { return a.Filename }
func (a AudioAttachment) Payload() []byte      { return a.Data }

// TextAttachment is a plain-text payload with its MIME type.
type TextAttachment struct {
	Filename string
	Data     []byte
	MIME     string
}

func (a TextAttachment) Kind() AttachmentKind { return AttachmentKindText }
func (a TextAttachment) Name() string         { return a.Filename }
func (a TextAttachment) Payload() []byte      { return a.Data }

// DocumentAttachment is an opaque document payload.
type DocumentAttachment struct {
	Filename string
	Data     []byte
}

func (a DocumentAttachment) Kind() AttachmentKind { return AttachmentKindDocument }
func (a DocumentAttachment) Name() string         { return a.Filename }
func (a DocumentAttachment) Payload() []byte      { return a.Data }

// DecodeAttachment reconstructs an attachment variant from its stored type
// tag. Only images persist a URL; the format/MIME metadata of the other
// variants has no column, so round-tripped attachments carry filename and
// bytes only.
func DecodeAttachment(kind AttachmentKind, filename, url string, data []byte) (Attachment, error) {
	switch kind {
	case AttachmentKindImage:
		return ImageAttachment{Filename: filename, Data: data, URL: url}, nil
	case AttachmentKindVideo:
		return VideoAttachment{Filename: filename, Data: data}, nil
	case AttachmentKindAudio:
		return AudioAttachment{Filename: filename, Data: data}, nil
	case AttachmentKindText:
		return TextAttachment{Filename: filename, Data: data}, nil
	case AttachmentKindDocument:
		return DocumentAttachment{Filename: filename, Data: data}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttachmentKind, kind)
	}
}

// AttachmentURL returns the stored URL for variants that carry one.
func AttachmentURL(a Attachment) string {
	if img, ok := a.(ImageAttachment); ok {
		return img.URL
	}
	return ""
}
