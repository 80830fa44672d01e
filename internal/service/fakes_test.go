package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/clipstream/clipstream/internal/model"
	"github.com/clipstream/clipstream/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// fakeUserStore is an in-memory UserStore. The refresh-token swap is guarded
// by the same mutex as everything else, so it is atomic the way the
// conditional update in the real repository is.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[primitive.ObjectID]*model.User)}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	return &c
}

func (f *fakeUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return cloneUser(u), nil
}

func (f *fakeUserStore) FindByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserStore) FindByUsernameOrEmail(_ context.Context, username, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return cloneUser(u), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserStore) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	f.users[user.ID] = cloneUser(user)
	return nil
}

func (f *fakeUserStore) UpdateByID(_ context.Context, id primitive.ObjectID, fields bson.M) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	for key, value := range fields {
		s, _ := value.(string)
		switch key {
		case "fullName":
			u.FullName = s
		case "email":
			u.Email = s
		case "avatar":
			u.Avatar = s
		case "coverImage":
			u.CoverImage = s
		}
	}
	u.UpdatedAt = time.Now()
	return cloneUser(u), nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.Password = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUserStore) SetRefreshToken(_ context.Context, id primitive.ObjectID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.RefreshToken = token
	return nil
}

func (f *fakeUserStore) RotateRefreshToken(_ context.Context, id primitive.ObjectID, previous, next string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return false, nil
	}
	if u.RefreshToken != previous {
		return false, nil
	}
	u.RefreshToken = next
	return true, nil
}

func (f *fakeUserStore) ClearRefreshToken(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.RefreshToken = ""
	return nil
}

// storedRefreshToken reads the persisted token directly for assertions
func (f *fakeUserStore) storedRefreshToken(id primitive.ObjectID) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return ""
	}
	return u.RefreshToken
}

// fakeUploader records the last upload instead of talking to object storage.
type fakeUploader struct {
	err             error
	lastKey         string
	lastContentType string
	lastBody        []byte
}

func (f *fakeUploader) Upload(_ context.Context, key string, body io.Reader, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.lastKey = key
	f.lastContentType = contentType
	f.lastBody = data
	return "https://cdn.example.com/" + key, nil
}

// fakeChannelStore serves canned aggregation results.
type fakeChannelStore struct {
	profile *repository.ChannelProfile
	history []repository.WatchHistoryItem
	calls   int
}

func (f *fakeChannelStore) ChannelProfile(_ context.Context, username string, _ primitive.ObjectID) (*repository.ChannelProfile, error) {
	f.calls++
	if f.profile == nil || f.profile.Username != username {
		return nil, mongo.ErrNoDocuments
	}
	c := *f.profile
	return &c, nil
}

func (f *fakeChannelStore) WatchHistory(_ context.Context, _ primitive.ObjectID) ([]repository.WatchHistoryItem, error) {
	return f.history, nil
}
