package domain

import (
	"errors"
	"testing"
)

func TestDecodeAttachmentDispatch(t *testing.T) {
	a, err := DecodeAttachment(AttachmentKindImage, "cat.png", "https://example.com/cat.png", []byte{1})
	if err != nil {
		t.Fatalf("decode image: %v", err)
	}
	img, ok := a.(ImageAttachment)
	if !ok {
		t.Fatalf("expected ImageAttachment, got %T", a)
	}
	if img.URL != "https://example.com/cat.png" {
		t.Fatalf("image URL lost: %q", img.URL)
	}

	a, err = DecodeAttachment(AttachmentKindDocument, "report.pdf", "", []byte{2})
	if err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if _, ok := a.(DocumentAttachment); !ok {
		t.Fatalf("expected DocumentAttachment, got %T", a)
	}
}

func TestDecodeAttachmentUnknownKind(t *testing.T) {
	_, err := DecodeAttachment("hologram", "x", "", nil)
	if !errors.Is(err, ErrUnknownAttachmentKind) {
		t.Fatalf("expected ErrUnknownAttachmentKind, got %v", err)
	}
}

func TestAttachmentURLOnlyForImages(t *testing.T) {
	if got := AttachmentURL(TextAttachment{Filename: "a.txt"}); got != "" {
		t.Fatalf("text attachment reported URL %q", got)
	}
	if got := AttachmentURL(ImageAttachment{URL: "u"}); got != "u" {
		t.Fatalf("image URL not returned, got %q", got)
	}
}
