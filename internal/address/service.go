// Package address manages the per-user saved address book. The book is one
// document per user in the document store; every mutation rewrites the whole
// document, so the default-address swap is atomic by construction.
package address

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aryankapoor/zapkart-backend/pkg/docstore"
	"github.com/aryankapoor/zapkart-backend/pkg/enums"
	"github.com/aryankapoor/zapkart-backend/pkg/errors"
	"github.com/aryankapoor/zapkart-backend/pkg/logger"
	"github.com/aryankapoor/zapkart-backend/pkg/maps"
)

// Indian mobile numbers: optional +91 prefix, ten digits starting 6-9.
var phoneRe = regexp.MustCompile(`^(\+91)?[6-9]\d{9}$`)

// Address is one saved delivery address.
type Address struct {
	ID          uuid.UUID          `json:"id"`
	Label       enums.AddressLabel `json:"label" validate:"required"`
	CustomLabel string             `json:"custom_label,omitempty"`
	FullName    string             `json:"full_name" validate:"required"`
	Line1       string             `json:"line1" validate:"required"`
	Line2       string             `json:"line2,omitempty"`
	City        string             `json:"city" validate:"required"`
	State       string             `json:"state" validate:"required"`
	PostalCode  string             `json:"postal_code" validate:"required,len=6,numeric"`
	Phone       string             `json:"phone" validate:"required,inphone"`
	IsDefault   bool               `json:"is_default"`
}

type document struct {
	Addresses []Address `json:"addresses"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service reads and rewrites address book documents.
type Service struct {
	store      docstore.Store
	collection string
	places     *maps.Client
	validate   *validator.Validate
	logg       *logger.Logger
}

func NewService(store docstore.Store, collection string, places *maps.Client, logg *logger.Logger) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("inphone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})
	return &Service{
		store:      store,
		collection: collection,
		places:     places,
		validate:   v,
		logg:       logg,
	}
}

// List returns the user's saved addresses, default first.
func (s *Service) List(ctx context.Context, userID string) ([]Address, error) {
	doc, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Address, 0, len(doc.Addresses))
	for _, a := range doc.Addresses {
		if a.IsDefault {
			out = append(out, a)
		}
	}
	for _, a := range doc.Addresses {
		if !a.IsDefault {
			out = append(out, a)
		}
	}
	return out, nil
}

// Add validates and saves a new address. The first address saved becomes the
// default; an explicit IsDefault on a later address swaps the default over.
func (s *Service) Add(ctx context.Context, userID string, addr Address) (Address, error) {
	if err := s.validateAddress(addr); err != nil {
		return Address{}, err
	}

	doc, err := s.load(ctx, userID)
	if err != nil {
		return Address{}, err
	}

	addr.ID = uuid.New()
	if len(doc.Addresses) == 0 {
		addr.IsDefault = true
	} else if addr.IsDefault {
		for i := range doc.Addresses {
			doc.Addresses[i].IsDefault = false
		}
	}
	doc.Addresses = append(doc.Addresses, addr)

	if err := s.save(ctx, userID, doc); err != nil {
		return Address{}, err
	}
	return addr, nil
}

// Update replaces an existing address. Updating an unknown id fails and
// leaves the book unchanged.
func (s *Service) Update(ctx context.Context, userID string, addr Address) (Address, error) {
	if err := s.validateAddress(addr); err != nil {
		return Address{}, err
	}

	doc, err := s.load(ctx, userID)
	if err != nil {
		return Address{}, err
	}

	idx := indexOf(doc.Addresses, addr.ID)
	if idx == -1 {
		return Address{}, errors.New(errors.CodeNotFound, "address not found")
	}

	// Default membership is managed through SetDefault, not Update.
	addr.IsDefault = doc.Addresses[idx].IsDefault
	doc.Addresses[idx] = addr

	if err := s.save(ctx, userID, doc); err != nil {
		return Address{}, err
	}
	return addr, nil
}

// Remove deletes an address. Removing an unknown id is a no-op. When the
// default address is removed the oldest remaining one becomes the default.
func (s *Service) Remove(ctx context.Context, userID string, id uuid.UUID) error {
	doc, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	idx := indexOf(doc.Addresses, id)
	if idx == -1 {
		return nil
	}

	wasDefault := doc.Addresses[idx].IsDefault
	doc.Addresses = append(doc.Addresses[:idx], doc.Addresses[idx+1:]...)
	if wasDefault && len(doc.Addresses) > 0 {
		doc.Addresses[0].IsDefault = true
	}

	return s.save(ctx, userID, doc)
}

// SetDefault makes the given address the single default. The swap happens in
// one document write, so no intermediate zero-default or two-default state is
// ever visible.
func (s *Service) SetDefault(ctx context.Context, userID string, id uuid.UUID) error {
	doc, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	idx := indexOf(doc.Addresses, id)
	if idx == -1 {
		return errors.New(errors.CodeNotFound, "address not found")
	}

	for i := range doc.Addresses {
		doc.Addresses[i].IsDefault = i == idx
	}
	return s.save(ctx, userID, doc)
}

// Default returns the user's default address, or found=false when the book
// is empty.
func (s *Service) Default(ctx context.Context, userID string) (Address, bool, error) {
	doc, err := s.load(ctx, userID)
	if err != nil {
		return Address{}, false, err
	}
	for _, a := range doc.Addresses {
		if a.IsDefault {
			return a, true, nil
		}
	}
	return Address{}, false, nil
}

// Get returns one address by id.
func (s *Service) Get(ctx context.Context, userID string, id uuid.UUID) (Address, error) {
	doc, err := s.load(ctx, userID)
	if err != nil {
		return Address{}, err
	}
	idx := indexOf(doc.Addresses, id)
	if idx == -1 {
		return Address{}, errors.New(errors.CodeNotFound, "address not found")
	}
	return doc.Addresses[idx], nil
}

// Suggest returns autocomplete predictions for a partial address. Returns an
// empty slice when the Places integration is not configured.
func (s *Service) Suggest(ctx context.Context, input string) ([]maps.Suggestion, error) {
	if s.places == nil {
		return []maps.Suggestion{}, nil
	}
	suggestions, err := s.places.Autocomplete(ctx, input)
	if err != nil {
		s.logg.Error(ctx, "places autocomplete failed", err)
		return nil, errors.Wrap(errors.CodeDependency, err, "address autocomplete failed")
	}
	return suggestions, nil
}

func (s *Service) validateAddress(addr Address) error {
	if !addr.Label.Valid() {
		return errors.New(errors.CodeValidation, "unknown address label")
	}
	if addr.Label.RequiresCustomLabel() && addr.CustomLabel == "" {
		return errors.New(errors.CodeValidation, "custom label is required for label 'other'")
	}
	if err := s.validate.Struct(addr); err != nil {
		return errors.Wrap(errors.CodeValidation, err, "invalid address").WithDetails(err.Error())
	}
	return nil
}

func (s *Service) load(ctx context.Context, userID string) (document, error) {
	var doc document
	data, found, err := s.store.Get(ctx, s.collection, userID)
	if err != nil {
		return doc, errors.Wrap(errors.CodeSync, err, "loading address book")
	}
	if !found {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, errors.Wrap(errors.CodeSync, err, "decoding address book")
	}
	return doc, nil
}

func (s *Service) save(ctx context.Context, userID string, doc document) error {
	doc.UpdatedAt = time.Now().UTC()
	if doc.Addresses == nil {
		doc.Addresses = []Address{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(errors.CodeSync, err, "encoding address book")
	}
	if err := s.store.Set(ctx, s.collection, userID, data); err != nil {
		return errors.Wrap(errors.CodeSync, err, "saving address book")
	}
	return nil
}

func indexOf(addresses []Address, id uuid.UUID) int {
	for i, a := range addresses {
		if a.ID == id {
			return i
		}
	}
	return -1
}
