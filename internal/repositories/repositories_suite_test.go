package repositories_test

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// StoreSuite runs the same contract against every Store implementation.
type StoreSuite struct {
	suite.Suite
	newStore func() (*repositories.Store, func(), error)
	store    *repositories.Store
	cleanup  func()
	ctx      context.Context
}

func (s *StoreSuite) SetupTest() {
	store, cleanup, err := s.newStore()
	s.Require().NoError(err)
	s.store = store
	s.cleanup = cleanup
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

func noCleanup() {}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func() (*repositories.Store, func(), error) {
		return repositories.NewMemoryStore(), noCleanup, nil
	}})
}

func TestSQLiteStore(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func() (*repositories.Store, func(), error) {
		db, err := database.OpenGORM(&config.Config{
			DatabaseDriver: config.DriverSQLite,
			DatabaseDSN:    "file:" + uuid.New().String() + "?mode=memory&cache=shared",
		})
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewGORMStore(db), func() { _ = sqlDB.Close() }, nil
	}})
}

// TestMongoStore needs a reachable server, e.g.
// MONGO_URI=mongodb://localhost:27017 go test ./internal/repositories/...
// Every test gets its own database, dropped afterwards.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx := context.Background()
	client, err := database.ConnectMongo(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	suite.Run(t, &StoreSuite{newStore: func() (*repositories.Store, func(), error) {
		db := client.Database("storefront_test_" + strings.ReplaceAll(uuid.New().String(), "-", ""))
		store, err := repositories.NewMongoStore(ctx, db)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = db.Drop(context.Background()) }, nil
	}})
}

func (s *StoreSuite) newProduct(name, slug string, sizes ...models.ProductSize) *models.Product {
	return &models.Product{
		Name:        name,
		Slug:        slug,
		Description: "A product",
		Price:       50,
		CategoryID:  "cat-1",
		Sizes:       sizes,
		IsActive:    true,
	}
}

func (s *StoreSuite) createProduct(name, slug string, sizes ...models.ProductSize) *models.Product {
	p := s.newProduct(name, slug, sizes...)
	s.Require().NoError(s.store.Products.Create(s.ctx, p))
	s.Require().NotEmpty(p.ID)
	return p
}

func (s *StoreSuite) TestProductCreateAndGetByID() {
	p := s.createProduct("Red Shoe", "red-shoe",
		models.ProductSize{Size: "M", Stock: 3},
		models.ProductSize{Size: "L", Stock: 1},
		models.ProductSize{Size: "S", Stock: 0},
	)

	got, err := s.store.Products.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Red Shoe", got.Name)
	s.Equal("red-shoe", got.Slug)
	s.False(got.IsDeleted)
	s.True(got.IsActive)
	s.Require().Len(got.Sizes, 3)
	s.Equal([]string{"M", "L", "S"}, []string{got.Sizes[0].Size, got.Sizes[1].Size, got.Sizes[2].Size})
	s.Equal(3, got.Sizes[0].Stock)
}

func (s *StoreSuite) TestProductDuplicateSlug() {
	s.createProduct("Red Shoe", "red-shoe")

	err := s.store.Products.Create(s.ctx, s.newProduct("Red shoe", "red-shoe"))
	s.ErrorIs(err, repositories.ErrDuplicate)

	other := s.createProduct("Blue Shoe", "blue-shoe")
	taken := "red-shoe"
	err = s.store.Products.UpdateDetails(s.ctx, other.ID, other.Version, repositories.ProductChanges{Slug: &taken, UpdatedAt: time.Now()})
	s.ErrorIs(err, repositories.ErrDuplicate)
}

func (s *StoreSuite) TestProductUpdateDetails() {
	p := s.createProduct("Red Shoe", "red-shoe", models.ProductSize{Size: "M", Stock: 2})
	name, productSlug, discount := "Crimson Shoe", "crimson-shoe", 40.0
	s.Require().NoError(s.store.Products.UpdateDetails(s.ctx, p.ID, p.Version, repositories.ProductChanges{
		Name:          &name,
		Slug:          &productSlug,
		DiscountPrice: &discount,
		UpdatedAt:     time.Now(),
	}))

	got, err := s.store.Products.GetActiveBySlug(s.ctx, "crimson-shoe")
	s.Require().NoError(err)
	s.Equal("Crimson Shoe", got.Name)
	s.Equal("A product", got.Description)
	s.Equal(50.0, got.Price)
	s.Require().NotNil(got.DiscountPrice)
	s.Equal(40.0, *got.DiscountPrice)
	s.True(got.IsActive)
	s.Equal(p.Version+1, got.Version)
	s.Require().Len(got.Sizes, 1)
	s.Equal(2, got.Sizes[0].Stock)

	_, err = s.store.Products.GetActiveBySlug(s.ctx, "red-shoe")
	s.ErrorIs(err, repositories.ErrNotFound)

	s.Require().NoError(s.store.Products.UpdateDetails(s.ctx, p.ID, got.Version, repositories.ProductChanges{
		ClearDiscount: true,
		UpdatedAt:     time.Now(),
	}))
	got, err = s.store.Products.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Nil(got.DiscountPrice)

	err = s.store.Products.UpdateDetails(s.ctx, uuid.New().String(), 0, repositories.ProductChanges{UpdatedAt: time.Now()})
	s.ErrorIs(err, repositories.ErrNotFound)
}

func (s *StoreSuite) TestProductUpdateDetailsRejectsStaleVersion() {
	p := s.createProduct("Red Shoe", "red-shoe")
	readVersion := p.Version

	cut := 20.0
	s.Require().NoError(s.store.Products.UpdateDetails(s.ctx, p.ID, readVersion, repositories.ProductChanges{Price: &cut, UpdatedAt: time.Now()}))

	discount := 30.0
	err := s.store.Products.UpdateDetails(s.ctx, p.ID, readVersion, repositories.ProductChanges{DiscountPrice: &discount, UpdatedAt: time.Now()})
	s.ErrorIs(err, repositories.ErrStale)

	got, err := s.store.Products.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(20.0, got.Price)
	s.Nil(got.DiscountPrice)
}

func (s *StoreSuite) TestProductUpdateDetailsAfterSoftDelete() {
	p := s.createProduct("Red Shoe", "red-shoe")
	readVersion := p.Version
	s.Require().NoError(s.store.Products.SoftDelete(s.ctx, p.ID, time.Now()))

	active := true
	err := s.store.Products.UpdateDetails(s.ctx, p.ID, readVersion, repositories.ProductChanges{IsActive: &active, UpdatedAt: time.Now()})
	s.ErrorIs(err, repositories.ErrStale)

	deleted, err := s.store.Products.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.True(deleted.IsDeleted)
	s.False(deleted.IsActive)

	// Even with the current version a deleted product stays untouched.
	err = s.store.Products.UpdateDetails(s.ctx, p.ID, deleted.Version, repositories.ProductChanges{IsActive: &active, UpdatedAt: time.Now()})
	s.ErrorIs(err, repositories.ErrStale)
}

func (s *StoreSuite) TestProductSoftDeleteAndRestore() {
	p := s.createProduct("Red Shoe", "red-shoe")
	keep := s.createProduct("Blue Shoe", "blue-shoe")

	at := time.Now()
	s.Require().NoError(s.store.Products.SoftDelete(s.ctx, p.ID, at))

	active, err := s.store.Products.ListActive(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal(keep.ID, active[0].ID)

	_, err = s.store.Products.GetActiveBySlug(s.ctx, "red-shoe")
	s.ErrorIs(err, repositories.ErrNotFound)

	deleted, err := s.store.Products.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.True(deleted.IsDeleted)
	s.False(deleted.IsActive)
	s.Require().NotNil(deleted.DeletedAt)
	s.WithinDuration(at, *deleted.DeletedAt, time.Second)

	// Soft-deleted products keep their slug.
	s.ErrorIs(s.store.Products.Create(s.ctx, s.newProduct("Red Shoe", "red-shoe")), repositories.ErrDuplicate)

	s.Require().NoError(s.store.Products.Restore(s.ctx, p.ID))
	restored, err := s.store.Products.GetActiveBySlug(s.ctx, "red-shoe")
	s.Require().NoError(err)
	s.False(restored.IsDeleted)
	s.True(restored.IsActive)
	s.Nil(restored.DeletedAt)

	s.ErrorIs(s.store.Products.SoftDelete(s.ctx, "missing", at), repositories.ErrNotFound)
	s.ErrorIs(s.store.Products.Restore(s.ctx, "missing"), repositories.ErrNotFound)
}

func (s *StoreSuite) TestProductAdjustStock() {
	p := s.createProduct("Red Shoe", "red-shoe",
		models.ProductSize{Size: "M", Stock: 3},
		models.ProductSize{Size: "L", Stock: 1},
	)

	sizes, err := s.store.Products.AdjustStock(s.ctx, p.ID, "M", 5)
	s.Require().NoError(err)
	s.Equal(8, sizes[0].Stock)

	sizes, err = s.store.Products.AdjustStock(s.ctx, p.ID, "M", -5)
	s.Require().NoError(err)
	s.Equal(3, sizes[0].Stock)
	s.Equal(1, sizes[1].Stock)

	_, err = s.store.Products.AdjustStock(s.ctx, p.ID, "L", -2)
	s.ErrorIs(err, repositories.ErrInsufficientStock)

	_, err = s.store.Products.AdjustStock(s.ctx, p.ID, "XL", 1)
	s.ErrorIs(err, repositories.ErrSizeNotFound)

	_, err = s.store.Products.AdjustStock(s.ctx, "missing", "M", 1)
	s.ErrorIs(err, repositories.ErrNotFound)

	got, err := s.store.Products.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	stock, ok := got.SizeStock("L")
	s.True(ok)
	s.Equal(1, stock)

	sizes, err = s.store.Products.AdjustStock(s.ctx, p.ID, "L", -1)
	s.Require().NoError(err)
	s.Equal(0, sizes[1].Stock)
}

func (s *StoreSuite) TestProductAdjustStockConcurrentLastUnit() {
	p := s.createProduct("Red Shoe", "red-shoe", models.ProductSize{Size: "M", Stock: 1})

	const workers = 2
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.store.Products.AdjustStock(context.Background(), p.ID, "M", -1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.ErrorIs(err, repositories.ErrInsufficientStock)
		}
	}
	s.Equal(1, succeeded)

	got, err := s.store.Products.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	stock, _ := got.SizeStock("M")
	s.Equal(0, stock)
}

func (s *StoreSuite) TestProductAddImage() {
	p := s.createProduct("Red Shoe", "red-shoe")

	images, err := s.store.Products.AddImage(s.ctx, p.ID, models.ProductImage{URL: "/uploads/a.png", PublicID: "a.png"})
	s.Require().NoError(err)
	s.Len(images, 1)

	images, err = s.store.Products.AddImage(s.ctx, p.ID, models.ProductImage{URL: "/uploads/b.png", PublicID: "b.png"})
	s.Require().NoError(err)
	s.Require().Len(images, 2)
	s.Equal("/uploads/a.png", images[0].URL)
	s.Equal("b.png", images[1].PublicID)

	_, err = s.store.Products.AddImage(s.ctx, "missing", models.ProductImage{URL: "/uploads/c.png"})
	s.ErrorIs(err, repositories.ErrNotFound)
}

func (s *StoreSuite) TestCategoryLifecycle() {
	shoes := &models.Category{Name: "Shoes", Slug: "shoes"}
	hats := &models.Category{Name: "Hats", Slug: "hats"}
	s.Require().NoError(s.store.Categories.Create(s.ctx, shoes))
	s.Require().NoError(s.store.Categories.Create(s.ctx, hats))
	s.ErrorIs(s.store.Categories.Create(s.ctx, &models.Category{Name: "Shoes", Slug: "shoes"}), repositories.ErrDuplicate)

	all, err := s.store.Categories.GetAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("Hats", all[0].Name)
	s.Equal("Shoes", all[1].Name)

	got, err := s.store.Categories.GetBySlug(s.ctx, "shoes")
	s.Require().NoError(err)
	s.Equal(shoes.ID, got.ID)

	got.Name = "Sneakers"
	got.Slug = "sneakers"
	s.Require().NoError(s.store.Categories.Update(s.ctx, got))
	_, err = s.store.Categories.GetBySlug(s.ctx, "shoes")
	s.ErrorIs(err, repositories.ErrNotFound)

	got.Slug = "hats"
	s.ErrorIs(s.store.Categories.Update(s.ctx, got), repositories.ErrDuplicate)

	s.Require().NoError(s.store.Categories.Delete(s.ctx, hats.ID))
	_, err = s.store.Categories.GetByID(s.ctx, hats.ID)
	s.ErrorIs(err, repositories.ErrNotFound)
	s.ErrorIs(s.store.Categories.Delete(s.ctx, hats.ID), repositories.ErrNotFound)
}

func (s *StoreSuite) TestOrderUpdateStatus() {
	order := &models.Order{
		UserID:      "user-1",
		Items:       []models.OrderItem{{ProductID: "p1", Name: "Red Shoe", Size: "M", Quantity: 2, Price: 40}},
		TotalAmount: 80,
		Status:      models.OrderPending,
	}
	s.Require().NoError(s.store.Orders.Create(s.ctx, order))

	at := time.Now()
	s.Require().NoError(s.store.Orders.UpdateStatus(s.ctx, order.ID, models.OrderDelivered, at))

	got, err := s.store.Orders.GetByID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderDelivered, got.Status)
	s.Require().NotNil(got.DeliveredAt)
	s.WithinDuration(at, *got.DeliveredAt, time.Second)
	s.Nil(got.CancelledAt)
	s.Nil(got.RefundedAt)
	s.Require().Len(got.Items, 1)
	s.Equal(2, got.Items[0].Quantity)

	s.Require().NoError(s.store.Orders.UpdateStatus(s.ctx, order.ID, models.OrderRefunded, at.Add(time.Minute)))
	got, err = s.store.Orders.GetByID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderRefunded, got.Status)
	s.NotNil(got.DeliveredAt)
	s.NotNil(got.RefundedAt)

	s.ErrorIs(s.store.Orders.UpdateStatus(s.ctx, "missing", models.OrderCancelled, at), repositories.ErrNotFound)

	all, err := s.store.Orders.GetAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *StoreSuite) TestUserUniqueEmail() {
	user := &models.User{Name: "Ann", Email: "ann@example.com", Password: "hash", Role: models.RoleUser}
	s.Require().NoError(s.store.Users.Create(s.ctx, user))
	s.ErrorIs(s.store.Users.Create(s.ctx, &models.User{Name: "Other", Email: "ann@example.com", Password: "x", Role: models.RoleUser}),
		repositories.ErrDuplicate)

	got, err := s.store.Users.GetByEmail(s.ctx, "ann@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, got.ID)

	byID, err := s.store.Users.GetByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(models.RoleUser, byID.Role)

	_, err = s.store.Users.GetByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, repositories.ErrNotFound)
}

func TestMemoryProductRepository_ReturnsCopies(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	p := &models.Product{Name: "Red Shoe", Slug: "red-shoe", Sizes: []models.ProductSize{{Size: "M", Stock: 1}}}
	require.NoError(t, repo.Create(context.Background(), p))

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	got.Sizes[0].Stock = 100

	again, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, 1, again.Sizes[0].Stock)
}
