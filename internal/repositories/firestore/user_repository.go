package firestore

import (
	"context"
	"errors"
	"strings"

	domain "github.com/campusdocs/api/internal/domain"
	pfirestore "github.com/campusdocs/api/internal/platform/firestore"
)

const usersCollection = "users"

type userDocument struct {
	FirstName string `firestore:"firstName"`
	LastName  string `firestore:"lastName"`
	Email     string `firestore:"email"`
}

// UserRepository reads requester profiles for notification rendering.
type UserRepository struct {
	users *pfirestore.Collection[userDocument]
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	return &UserRepository{
		users: pfirestore.NewCollection[userDocument](provider, usersCollection, nil),
	}, nil
}

// FindByID loads the requester profile by user reference.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.Requester, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Requester{}, errors.New("user id is required")
	}
	doc, err := r.users.Get(ctx, strings.TrimSpace(userID))
	if err != nil {
		return domain.Requester{}, err
	}
	return domain.Requester{
		ID:        doc.ID,
		FirstName: strings.TrimSpace(doc.Data.FirstName),
		LastName:  strings.TrimSpace(doc.Data.LastName),
		Email:     strings.TrimSpace(doc.Data.Email),
	}, nil
}
