package usecase

import (
	"context"
	"sync"

	"github.com/DRSN-tech/shop-backend/internal/domain"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// testLogger реализует logger.Logger и молчит.
type testLogger struct{}

func (testLogger) Debugf(format string, args ...any)            {}
func (testLogger) Infof(format string, args ...any)             {}
func (testLogger) Warnf(format string, args ...any)             {}
func (testLogger) Errorf(err error, format string, args ...any) {}

// memUserRepo хранит пользователей в памяти.
type memUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	nextID int64
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]*domain.User), nextID: 1}
}

func (m *memUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return nil, e.ErrEmailTaken
		}
	}
	cp := *user
	cp.ID = m.nextID
	m.nextID++
	m.users[cp.ID] = &cp
	return &cp, nil
}

func (m *memUserRepo) List(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, nil
}

func (m *memUserRepo) Exists(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[id]
	return ok, nil
}

func (m *memUserRepo) byID(id int64) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

func (m *memUserRepo) add(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = &domain.User{ID: id}
}

// memProductRepo хранит каталог и остатки. Остатки меняются только
// через memInventoryRepo, который смотрит в ту же структуру.
type memProductRepo struct {
	mu       sync.Mutex
	products map[int64]*domain.Product
	nextID   int64

	deleteBlocked map[int64]bool // товары, на которые "ссылаются" корзины/заказы
}

func newMemProductRepo(products ...*domain.Product) *memProductRepo {
	repo := &memProductRepo{
		products:      make(map[int64]*domain.Product),
		nextID:        1,
		deleteBlocked: make(map[int64]bool),
	}
	for _, p := range products {
		cp := *p
		repo.products[cp.ID] = &cp
		if cp.ID >= repo.nextID {
			repo.nextID = cp.ID + 1
		}
	}
	return repo
}

func (m *memProductRepo) Create(_ context.Context, product *domain.Product) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *product
	cp.ID = m.nextID
	m.nextID++
	m.products[cp.ID] = &cp
	return &cp, nil
}

func (m *memProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProductRepo) List(_ context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		result = append(result, *p)
	}
	return result, nil
}

func (m *memProductRepo) Update(_ context.Context, product *domain.Product) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return nil, e.ErrProductNotFound
	}
	cp := *product
	m.products[cp.ID] = &cp
	return &cp, nil
}

func (m *memProductRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return e.ErrProductNotFound
	}
	if m.deleteBlocked[id] {
		return e.ErrProductReferenced
	}
	delete(m.products, id)
	return nil
}

func (m *memProductRepo) GetProductsInfo(_ context.Context, ids []int64) ([]ProductInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]ProductInfo, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			result = append(result, NewProductInfo(p.ID, p.Name, p.Price))
		}
	}
	return result, nil
}

func (m *memProductRepo) stock(id int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		return p.Stock
	}
	return -1
}

// memInventoryRepo резервирует остатки в каталоге memProductRepo под
// общим мьютексом, воспроизводя атомарный условный UPDATE.
type memInventoryRepo struct {
	catalog *memProductRepo

	mu       sync.Mutex
	reserves []int64 // product IDs в порядке резервирования
	releases []int64 // product IDs в порядке возврата
}

func newMemInventoryRepo(catalog *memProductRepo) *memInventoryRepo {
	return &memInventoryRepo{catalog: catalog}
}

func (m *memInventoryRepo) TryReserve(_ context.Context, productID, quantity int64) error {
	if quantity <= 0 {
		return e.ErrInvalidQuantity
	}

	m.catalog.mu.Lock()
	defer m.catalog.mu.Unlock()

	p, ok := m.catalog.products[productID]
	if !ok {
		return e.ErrProductNotFound
	}
	if p.Stock < quantity {
		return e.NewInsufficientStockError(productID, quantity, p.Stock)
	}
	p.Stock -= quantity

	m.mu.Lock()
	m.reserves = append(m.reserves, productID)
	m.mu.Unlock()
	return nil
}

func (m *memInventoryRepo) Release(_ context.Context, productID, quantity int64) error {
	m.catalog.mu.Lock()
	defer m.catalog.mu.Unlock()

	p, ok := m.catalog.products[productID]
	if !ok {
		return e.ErrProductNotFound
	}
	p.Stock += quantity

	m.mu.Lock()
	m.releases = append(m.releases, productID)
	m.mu.Unlock()
	return nil
}

func (m *memInventoryRepo) releasedIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]int64, len(m.releases))
	copy(cp, m.releases)
	return cp
}

// memCartRepo хранит корзины с версионированием.
type memCartRepo struct {
	mu        sync.Mutex
	carts     map[int64]*domain.Cart
	clearErr  error // подменяет результат ClearIfVersion
	failSaves int   // сколько первых Save вернут конфликт версии
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[int64]*domain.Cart)}
}

func (m *memCartRepo) GetByUser(_ context.Context, userID int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[userID]
	if !ok {
		return &domain.Cart{UserID: userID}, nil
	}
	cp := *cart
	cp.Lines = make([]domain.CartLine, len(cart.Lines))
	copy(cp.Lines, cart.Lines)
	return &cp, nil
}

func (m *memCartRepo) Save(_ context.Context, cart *domain.Cart) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaves > 0 {
		m.failSaves--
		return nil, e.ErrCartConflict
	}
	stored, ok := m.carts[cart.UserID]
	if !ok {
		if cart.Version != 0 {
			return nil, e.ErrCartConflict
		}
	} else if stored.Version != cart.Version {
		return nil, e.ErrCartConflict
	}

	cp := *cart
	cp.Version++
	cp.Lines = make([]domain.CartLine, len(cart.Lines))
	copy(cp.Lines, cart.Lines)
	m.carts[cart.UserID] = &cp

	out := cp
	return &out, nil
}

func (m *memCartRepo) ClearIfVersion(_ context.Context, userID, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	stored, ok := m.carts[userID]
	if !ok || stored.Version != version {
		return e.ErrCartConflict
	}
	stored.Lines = nil
	stored.Version++
	return nil
}

func (m *memCartRepo) put(cart *domain.Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cart.UserID] = cart
}

// memOrderRepo хранит заказы; запись может падать заданное число раз.
type memOrderRepo struct {
	mu          sync.Mutex
	orders      map[int64]*domain.Order
	nextID      int64
	createCalls int
	failCreates int // сколько первых Create вернут ошибку
	createErr   error
	onCreate    func() // вызывается перед каждой записью
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[int64]*domain.Order), nextID: 1}
}

func (m *memOrderRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.onCreate != nil {
		m.onCreate()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.failCreates > 0 {
		m.failCreates--
		return nil, m.createErr
	}
	cp := *order
	cp.ID = m.nextID
	m.nextID++
	cp.Lines = make([]domain.OrderLine, len(order.Lines))
	copy(cp.Lines, order.Lines)
	m.orders[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (m *memOrderRepo) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, e.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (m *memOrderRepo) GetByUser(_ context.Context, userID int64) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]domain.Order, 0)
	for _, order := range m.orders {
		if order.UserID == userID {
			result = append(result, *order)
		}
	}
	return result, nil
}

func (m *memOrderRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// memOutboxRepo копит события в памяти.
type memOutboxRepo struct {
	mu     sync.Mutex
	events []*OutboxEvent
}

func newMemOutboxRepo() *memOutboxRepo {
	return &memOutboxRepo{}
}

func (m *memOutboxRepo) Create(_ context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *event
	cp.ID = int64(len(m.events) + 1)
	m.events = append(m.events, &cp)
	return &cp, nil
}

func (m *memOutboxRepo) GetAndMarkAsProcessing(_ context.Context, limit int) ([]*OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*OutboxEvent, 0, limit)
	for _, ev := range m.events {
		if ev.Status == Pending && len(result) < limit {
			ev.Status = Processing
			result = append(result, ev)
		}
	}
	return result, nil
}

func (m *memOutboxRepo) MarkAsProcessed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.events {
		if ev.ID == id {
			ev.Status = Processed
		}
	}
	return nil
}

func (m *memOutboxRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// mockCacheRepo — управляемый кэш для тестов каталога.
type mockCacheRepo struct {
	mu      sync.Mutex
	cached  map[int64]ProductInfo
	getErr  error
	deleted []int64
	setArgs []ProductInfo
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{cached: make(map[int64]ProductInfo)}
}

func (m *mockCacheRepo) GetProducts(_ context.Context, ids []int64) (map[int64]ProductInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make(map[int64]ProductInfo)
	for _, id := range ids {
		if info, ok := m.cached[id]; ok {
			result[id] = info
		}
	}
	return result, nil
}

func (m *mockCacheRepo) SetProducts(_ context.Context, products []ProductInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setArgs = append(m.setArgs, products...)
	for _, p := range products {
		m.cached[p.ID] = p
	}
	return nil
}

func (m *mockCacheRepo) DeleteProducts(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ids...)
	for _, id := range ids {
		delete(m.cached, id)
	}
	return nil
}

func (m *mockCacheRepo) deletedIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]int64, len(m.deleted))
	copy(cp, m.deleted)
	return cp
}

// fakeDB реализует transaction.Transactional поверх fakeTx.
type fakeDB struct {
	mu          sync.Mutex
	commitCalls int
	failCommits int // сколько первых Commit вернут ошибку
	commitErr   error
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return &fakeTx{db: db}, nil
}

func (db *fakeDB) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	return db.Begin(ctx)
}

// fakeTx — pgx.Tx, который ничего не делает, но умеет проваливать Commit.
type fakeTx struct {
	db *fakeDB
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *fakeTx) Commit(ctx context.Context) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.commitCalls++
	if t.db.failCommits > 0 {
		t.db.failCommits--
		return t.db.commitErr
	}
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error { return nil }

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (t *fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func (t *fakeTx) Conn() *pgx.Conn { return nil }
