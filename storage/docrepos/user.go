package docrepos

import (
	"context"
	"sort"

	"github.com/trezcool/potluck/core/user"
	"github.com/trezcool/potluck/storage/docstore"
)

type (
	userRepository struct {
		store *docstore.Store
	}

	usersDoc struct {
		Users []user.User `json:"users"`
	}
)

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(store *docstore.Store) user.Repository {
	return &userRepository{store: store}
}

func (repo *userRepository) load(ctx context.Context) (usersDoc, error) {
	var doc usersDoc
	if _, err := repo.store.Load(ctx, KeyUsers, &doc, func() { doc = usersDoc{Users: []user.User{}} }); err != nil {
		return usersDoc{}, err
	}
	return doc, nil
}

func (repo *userRepository) save(ctx context.Context, doc usersDoc) error {
	_, err := repo.store.Save(ctx, docstore.Entry{Key: KeyUsers, Value: doc})
	return err
}

func (repo *userRepository) QueryAll(ctx context.Context) ([]user.User, error) {
	doc, err := repo.load(ctx)
	if err != nil {
		return nil, err
	}
	users := append([]user.User{}, doc.Users...)
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (repo *userRepository) GetByID(ctx context.Context, id string) (user.User, error) {
	doc, err := repo.load(ctx)
	if err != nil {
		return user.User{}, err
	}
	for _, usr := range doc.Users {
		if usr.ID == id {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetByName(ctx context.Context, name string) (user.User, error) {
	doc, err := repo.load(ctx)
	if err != nil {
		return user.User{}, err
	}
	for _, usr := range doc.Users {
		if usr.SameName(name) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) Create(ctx context.Context, usr user.User) (user.User, error) {
	doc, err := repo.load(ctx)
	if err != nil {
		return user.User{}, err
	}
	for _, u := range doc.Users {
		if u.SameName(usr.Name) {
			return user.User{}, user.ErrNameExists
		}
	}
	doc.Users = append(doc.Users, usr)
	if err = repo.save(ctx, doc); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) Update(ctx context.Context, usr user.User) (user.User, error) {
	doc, err := repo.load(ctx)
	if err != nil {
		return user.User{}, err
	}
	for i, u := range doc.Users {
		if u.ID == usr.ID {
			doc.Users[i] = usr
			if err = repo.save(ctx, doc); err != nil {
				return user.User{}, err
			}
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}
