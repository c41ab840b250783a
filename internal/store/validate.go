package store

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"avatar-chat/internal/domain"
	"avatar-chat/internal/models"
)

const (
	// MaxNameLength is the maximum avatar name length in runes
	MaxNameLength = 100
	// MaxDescriptionLength is the maximum avatar description length in runes
	MaxDescriptionLength = 1000
)

type avatarInput struct {
	Name        string
	Description string
	PortraitRef string
}

// NewAvatar validates the creation input and builds the avatar record with a
// fresh ID. The name is stored trimmed.
func (o Options) NewAvatar(name, description, portraitRef string) (models.Avatar, error) {
	in := avatarInput{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		PortraitRef: strings.TrimSpace(portraitRef),
	}

	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name,
			validation.Required,
			validation.RuneLength(1, MaxNameLength),
		),
		validation.Field(&in.Description, validation.RuneLength(0, MaxDescriptionLength)),
	)
	if err != nil {
		return models.Avatar{}, domain.NewValidationError("invalid avatar", err)
	}

	return models.Avatar{
		ID:          o.NewID(),
		Name:        in.Name,
		Description: in.Description,
		PortraitRef: in.PortraitRef,
		Documents:   []models.FileRef{},
		Images:      []models.FileRef{},
		CreatedAt:   o.Now(),
	}, nil
}

// NewFileRefs validates a picked batch and assigns every file its own ID.
// The batch is split into documents and images, keeping input order in each.
func (o Options) NewFileRefs(files []models.FileDescriptor) (documents, images []models.FileRef, err error) {
	for i := range files {
		f := files[i]
		err := validation.ValidateStruct(&f,
			validation.Field(&f.Name, validation.Required),
			validation.Field(&f.SizeBytes, validation.Min(0)),
		)
		if err != nil {
			return nil, nil, domain.NewValidationError(fmt.Sprintf("invalid file at index %d", i), err)
		}
	}

	uploadedAt := o.Now()
	documents = []models.FileRef{}
	images = []models.FileRef{}
	for _, f := range files {
		ref := models.FileRef{
			ID:         o.NewID(),
			Name:       f.Name,
			MimeType:   f.MimeType,
			SizeBytes:  f.SizeBytes,
			ContentRef: f.ContentRef,
			UploadedAt: uploadedAt,
		}
		if models.IsImage(f.MimeType) {
			images = append(images, ref)
		} else {
			documents = append(documents, ref)
		}
	}
	return documents, images, nil
}

// NewMessage validates msg and fills in its ID and timestamp when unset
func (o Options) NewMessage(msg models.Message) (models.Message, error) {
	err := validation.ValidateStruct(&msg,
		validation.Field(&msg.Sender,
			validation.Required,
			validation.In(models.SenderTypeUser, models.SenderTypeAvatar, models.SenderTypeSystem),
		),
	)
	if err != nil {
		return models.Message{}, domain.NewValidationError("invalid message", err)
	}

	if msg.ID == "" {
		msg.ID = o.NewID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = o.Now()
	}
	return msg, nil
}
