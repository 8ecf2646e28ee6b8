package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mrlokans/prepwise/internal/entities"
)

// UsersCollection is the Firestore collection holding user profiles.
const UsersCollection = "users"

// Store keeps user profiles in Firestore, one document per account identifier.
type Store struct {
	client     *firestore.Client
	collection string
}

func NewStore(client *firestore.Client) *Store {
	return &Store{client: client, collection: UsersCollection}
}

// Get loads the profile document for id.
func (s *Store) Get(ctx context.Context, id string) (*entities.User, error) {
	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, entities.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}

	var user entities.User
	if err := snap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", id, err)
	}
	user.ID = snap.Ref.ID
	if !snap.CreateTime.IsZero() {
		user.CreatedAt = snap.CreateTime
	}
	return &user, nil
}

// Create writes a new profile document. Firestore rejects the write when the
// document already exists, so concurrent sign-ups produce a single document.
func (s *Store) Create(ctx context.Context, user *entities.User) error {
	_, err := s.client.Collection(s.collection).Doc(user.ID).Create(ctx, user)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return entities.ErrRecordExists
		}
		return fmt.Errorf("failed to create user %s: %w", user.ID, err)
	}
	return nil
}
