package repositories_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"storerating/internal/database"
	"storerating/internal/models"
	"storerating/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", "file:"+uuid.New().String()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, repos repositories.Repositories, name, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email, Password: "hash", Address: "Somewhere 1", Role: role}
	require.NoError(t, repos.Users.Create(context.Background(), u))
	return u
}

func seedStore(t *testing.T, repos repositories.Repositories, name, email, ownerID string) *models.Store {
	t.Helper()
	s := &models.Store{Name: name, Email: email, Address: "Main Street 1", OwnerID: ownerID}
	require.NoError(t, repos.Stores.Create(context.Background(), s))
	return s
}

func TestSortSpecResolve(t *testing.T) {
	s := repositories.StoreSort.Resolve("averageRating", "desc")
	assert.Equal(t, "averageRating", s.SortBy)
	assert.Equal(t, repositories.SortDesc, s.SortOrder)

	s = repositories.StoreSort.Resolve("password; DROP TABLE stores", "sideways")
	assert.Equal(t, "name", s.SortBy)
	assert.Equal(t, repositories.SortAsc, s.SortOrder)

	s = repositories.RatingSort.Resolve("", "")
	assert.Equal(t, "createdAt", s.SortBy)
	assert.Equal(t, repositories.SortDesc, s.SortOrder)
}

func TestNewPage(t *testing.T) {
	p := repositories.NewPage(0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, repositories.DefaultLimit, p.Limit)

	p = repositories.NewPage(3, 1000)
	assert.Equal(t, repositories.MaxLimit, p.Limit)
	assert.Equal(t, 200, p.Offset())

	p = repositories.NewPage(math.MaxInt, repositories.MaxLimit)
	assert.Equal(t, repositories.MaxPage, p.Page)
	assert.Greater(t, p.Offset(), 0)

	p = repositories.NewPage(1, 10)
	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(10))
	assert.Equal(t, 2, p.TotalPages(11))
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repos := repositories.NewGORMRepositories(newTestDB(t))
	seedUser(t, repos, "Alice Anderson Example Person", "alice@example.com", models.RoleUser)

	err := repos.Users.Create(context.Background(), &models.User{
		Name: "Alice Again", Email: "alice@example.com", Password: "hash", Address: "x", Role: models.RoleUser,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

func TestUserRepository_NotFound(t *testing.T) {
	repos := repositories.NewGORMRepositories(newTestDB(t))

	_, err := repos.Users.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	err = repos.Users.UpdatePassword(context.Background(), "missing", "hash")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestUserRepository_ListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	repos := repositories.NewGORMRepositories(newTestDB(t))
	seedUser(t, repos, "Zed", "zed@example.com", models.RoleUser)
	seedUser(t, repos, "amy", "amy@EXAMPLE.com", models.RoleUser)
	owner := seedUser(t, repos, "Bob", "bob@other.org", models.RoleStoreOwner)
	seedStore(t, repos, "Bob's", "bobs@other.org", owner.ID)

	users, total, err := repos.Users.List(ctx, repositories.UserFilter{Email: "Example.COM"},
		repositories.NewPage(1, 10), repositories.UserSort.Resolve("name", "asc"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, users, 2)
	assert.Equal(t, "Zed", users[0].Name) // byte order: uppercase sorts first
	assert.Equal(t, "amy", users[1].Name)

	role := models.RoleStoreOwner
	users, total, err = repos.Users.List(ctx, repositories.UserFilter{Role: &role},
		repositories.NewPage(1, 10), repositories.UserSort.Resolve("", ""))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Len(t, users[0].Stores, 1)
}

func TestUserRepository_LikeMetacharactersAreLiteral(t *testing.T) {
	ctx := context.Background()
	repos := repositories.NewGORMRepositories(newTestDB(t))
	seedUser(t, repos, "Percent", "p@example.com", models.RoleUser)
	seedUser(t, repos, "100% Real", "r@example.com", models.RoleUser)

	users, total, err := repos.Users.List(ctx, repositories.UserFilter{Name: "%"},
		repositories.NewPage(1, 10), repositories.UserSort.Resolve("", ""))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "100% Real", users[0].Name)
}

func TestStoreRepository_ListPaging(t *testing.T) {
	ctx := context.Background()
	repos := repositories.NewGORMRepositories(newTestDB(t))
	owner := seedUser(t, repos, "Owner", "owner@example.com", models.RoleStoreOwner)
	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		seedStore(t, repos, name, name+"@stores.test", owner.ID)
	}

	stores, total, err := repos.Stores.List(ctx, repositories.StoreFilter{},
		repositories.NewPage(2, 2), repositories.StoreSort.Resolve("name", "DESC"))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, stores, 1)
	assert.Equal(t, "Alpha", stores[0].Name)
	require.NotNil(t, stores[0].Owner)
	assert.Equal(t, "owner@example.com", stores[0].Owner.Email)
}

func TestStoreRepository_ForUpdateInsideUnitOfWork(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repos := repositories.NewGORMRepositories(db)
	owner := seedUser(t, repos, "Owner", "owner@example.com", models.RoleStoreOwner)
	store := seedStore(t, repos, "Alpha", "alpha@stores.test", owner.ID)

	uow := repositories.NewGORMUnitOfWork(db)
	err := uow.Do(ctx, func(tx repositories.Repositories) error {
		locked, err := tx.Stores.GetByIDForUpdate(ctx, store.ID)
		if err != nil {
			return err
		}
		return tx.Stores.UpdateAggregate(ctx, locked.ID, 4.5, 2)
	})
	require.NoError(t, err)

	got, err := repos.Stores.GetByID(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.5, got.AverageRating)
	assert.Equal(t, 2, got.TotalRatings)
}

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repos := repositories.NewGORMRepositories(db)
	owner := seedUser(t, repos, "Owner", "owner@example.com", models.RoleStoreOwner)
	rater := seedUser(t, repos, "Rater", "rater@example.com", models.RoleUser)
	store := seedStore(t, repos, "Alpha", "alpha@stores.test", owner.ID)

	boom := errors.New("boom")
	err := repositories.NewGORMUnitOfWork(db).Do(ctx, func(tx repositories.Repositories) error {
		if err := tx.Ratings.Create(ctx, &models.Rating{UserID: rater.ID, StoreID: store.ID, Rating: 5}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := repos.Ratings.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRatingRepository_UniquePerUserAndStore(t *testing.T) {
	ctx := context.Background()
	repos := repositories.NewGORMRepositories(newTestDB(t))
	owner := seedUser(t, repos, "Owner", "owner@example.com", models.RoleStoreOwner)
	rater := seedUser(t, repos, "Rater", "rater@example.com", models.RoleUser)
	store := seedStore(t, repos, "Alpha", "alpha@stores.test", owner.ID)

	require.NoError(t, repos.Ratings.Create(ctx, &models.Rating{UserID: rater.ID, StoreID: store.ID, Rating: 4}))
	err := repos.Ratings.Create(ctx, &models.Rating{UserID: rater.ID, StoreID: store.ID, Rating: 2})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	existing, err := repos.Ratings.GetByUserAndStore(ctx, rater.ID, store.ID)
	require.NoError(t, err)
	existing.Rating = 1
	require.NoError(t, repos.Ratings.Update(ctx, existing))

	values, err := repos.Ratings.ValuesByStore(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, values)

	mine, err := repos.Ratings.UserRatingsForStores(ctx, rater.ID, []string{store.ID, "other"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{store.ID: 1}, mine)
}

func TestRatingRepository_ListJoinsFilters(t *testing.T) {
	ctx := context.Background()
	repos := repositories.NewGORMRepositories(newTestDB(t))
	owner := seedUser(t, repos, "Owner", "owner@example.com", models.RoleStoreOwner)
	ann := seedUser(t, repos, "Ann", "ann@example.com", models.RoleUser)
	ben := seedUser(t, repos, "Ben", "ben@example.com", models.RoleUser)
	coffee := seedStore(t, repos, "Coffee Corner", "coffee@stores.test", owner.ID)
	books := seedStore(t, repos, "Book Barn", "books@stores.test", owner.ID)

	for _, r := range []models.Rating{
		{UserID: ann.ID, StoreID: coffee.ID, Rating: 5},
		{UserID: ben.ID, StoreID: coffee.ID, Rating: 3},
		{UserID: ann.ID, StoreID: books.ID, Rating: 5},
	} {
		r := r
		require.NoError(t, repos.Ratings.Create(ctx, &r))
	}

	five := 5
	ratings, total, err := repos.Ratings.List(ctx, repositories.RatingFilter{Rating: &five, StoreName: "coffee"},
		repositories.NewPage(1, 10), repositories.RatingSort.Resolve("", ""))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, ratings, 1)
	require.NotNil(t, ratings[0].User)
	require.NotNil(t, ratings[0].Store)
	assert.Equal(t, "Ann", ratings[0].User.Name)
	assert.Equal(t, "Coffee Corner", ratings[0].Store.Name)

	ratings, total, err = repos.Ratings.List(ctx, repositories.RatingFilter{UserName: "BEN"},
		repositories.NewPage(1, 10), repositories.RatingSort.Resolve("rating", "asc"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, ratings, 1)
	assert.Equal(t, 3, ratings[0].Rating)
}
