package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/session"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) OpenOrGetOrder(ctx context.Context, tableID, source string) (*models.Order, bool, error) {
	args := m.Called(ctx, tableID, source)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Order), args.Bool(1), args.Error(2)
}

func (m *MockDBLayer) CloseOrder(ctx context.Context, tableID, orderID string) (*models.Order, bool, error) {
	args := m.Called(ctx, tableID, orderID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Order), args.Bool(1), args.Error(2)
}

func (m *MockDBLayer) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type MockTableLock struct {
	mock.Mock
}

func (m *MockTableLock) LockTable(ctx context.Context, tableID, token string) (bool, error) {
	args := m.Called(ctx, tableID, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockTableLock) UnlockTable(ctx context.Context, tableID, token string) error {
	args := m.Called(ctx, tableID, token)
	return args.Error(0)
}

type MockKafkaPublisher struct {
	mock.Mock
}

func (m *MockKafkaPublisher) PublishOrderOpened(order models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockKafkaPublisher) PublishOrderClosed(order models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

type MockFeedEmitter struct {
	mock.Mock
}

func (m *MockFeedEmitter) EmitOrderOpened(order models.Order) {
	m.Called(order)
}

func (m *MockFeedEmitter) EmitOrderClosed(order models.Order) {
	m.Called(order)
}

func testOrder(tableID string) *models.Order {
	return &models.Order{
		OrderID:   uuid.NewString(),
		TableID:   tableID,
		Source:    models.SourceClientQR,
		CreatedAt: time.Now().UTC(),
	}
}

func newTestManager(t *testing.T, db *MockDBLayer, lock *MockTableLock, kafka *MockKafkaPublisher, feed *MockFeedEmitter) *session.Manager {
	t.Setenv("LOG_DIR", t.TempDir())
	return session.NewManager(db, lock, kafka, feed, logger.NewLogger())
}

func TestOpenOrGetOrder_PublishesOnCreate(t *testing.T) {
	db := new(MockDBLayer)
	lock := new(MockTableLock)
	kafka := new(MockKafkaPublisher)
	feed := new(MockFeedEmitter)
	manager := newTestManager(t, db, lock, kafka, feed)

	order := testOrder("12")
	lock.On("LockTable", mock.Anything, "12", mock.Anything).Return(true, nil)
	lock.On("UnlockTable", mock.Anything, "12", mock.Anything).Return(nil)
	db.On("OpenOrGetOrder", mock.Anything, "12", models.SourceClientQR).Return(order, true, nil)
	kafka.On("PublishOrderOpened", *order).Return(nil)
	feed.On("EmitOrderOpened", *order).Return()

	got, created, err := manager.OpenOrGetOrder(context.Background(), "12", false)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, order.OrderID, got.OrderID)

	db.AssertExpectations(t)
	lock.AssertExpectations(t)
	kafka.AssertExpectations(t)
	feed.AssertExpectations(t)
}

func TestOpenOrGetOrder_NoEventsOnReuse(t *testing.T) {
	db := new(MockDBLayer)
	lock := new(MockTableLock)
	kafka := new(MockKafkaPublisher)
	feed := new(MockFeedEmitter)
	manager := newTestManager(t, db, lock, kafka, feed)

	order := testOrder("7")
	lock.On("LockTable", mock.Anything, "7", mock.Anything).Return(true, nil)
	lock.On("UnlockTable", mock.Anything, "7", mock.Anything).Return(nil)
	db.On("OpenOrGetOrder", mock.Anything, "7", models.SourceClientQR).Return(order, false, nil)

	_, created, err := manager.OpenOrGetOrder(context.Background(), "7", false)
	require.NoError(t, err)
	assert.False(t, created)

	kafka.AssertNotCalled(t, "PublishOrderOpened", mock.Anything)
	feed.AssertNotCalled(t, "EmitOrderOpened", mock.Anything)
}

func TestOpenOrGetOrder_StaffSource(t *testing.T) {
	db := new(MockDBLayer)
	lock := new(MockTableLock)
	kafka := new(MockKafkaPublisher)
	feed := new(MockFeedEmitter)
	manager := newTestManager(t, db, lock, kafka, feed)

	order := testOrder("3")
	order.Source = models.SourceStaffTerminal
	lock.On("LockTable", mock.Anything, "3", mock.Anything).Return(true, nil)
	lock.On("UnlockTable", mock.Anything, "3", mock.Anything).Return(nil)
	db.On("OpenOrGetOrder", mock.Anything, "3", models.SourceStaffTerminal).Return(order, true, nil)
	kafka.On("PublishOrderOpened", *order).Return(nil)
	feed.On("EmitOrderOpened", *order).Return()

	_, _, err := manager.OpenOrGetOrder(context.Background(), "3", true)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestOpenOrGetOrder_LockFailureDoesNotBlock(t *testing.T) {
	db := new(MockDBLayer)
	lock := new(MockTableLock)
	kafka := new(MockKafkaPublisher)
	feed := new(MockFeedEmitter)
	manager := newTestManager(t, db, lock, kafka, feed)

	order := testOrder("9")
	// Redis down: the session transition must still go through
	lock.On("LockTable", mock.Anything, "9", mock.Anything).Return(false, errors.New("connection refused"))
	db.On("OpenOrGetOrder", mock.Anything, "9", models.SourceClientQR).Return(order, true, nil)
	kafka.On("PublishOrderOpened", *order).Return(nil)
	feed.On("EmitOrderOpened", *order).Return()

	_, created, err := manager.OpenOrGetOrder(context.Background(), "9", false)
	require.NoError(t, err)
	assert.True(t, created)
	lock.AssertNotCalled(t, "UnlockTable", mock.Anything, mock.Anything, mock.Anything)
}

func TestOpenOrGetOrder_KafkaFailureIsNotFatal(t *testing.T) {
	db := new(MockDBLayer)
	lock := new(MockTableLock)
	kafka := new(MockKafkaPublisher)
	feed := new(MockFeedEmitter)
	manager := newTestManager(t, db, lock, kafka, feed)

	order := testOrder("4")
	lock.On("LockTable", mock.Anything, "4", mock.Anything).Return(true, nil)
	lock.On("UnlockTable", mock.Anything, "4", mock.Anything).Return(nil)
	db.On("OpenOrGetOrder", mock.Anything, "4", models.SourceClientQR).Return(order, true, nil)
	kafka.On("PublishOrderOpened", *order).Return(errors.New("broker unreachable"))
	feed.On("EmitOrderOpened", *order).Return()

	got, _, err := manager.OpenOrGetOrder(context.Background(), "4", false)
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, got.OrderID)
}

func TestCloseOrder_PublishesOnTransition(t *testing.T) {
	db := new(MockDBLayer)
	lock := new(MockTableLock)
	kafka := new(MockKafkaPublisher)
	feed := new(MockFeedEmitter)
	manager := newTestManager(t, db, lock, kafka, feed)

	order := testOrder("5")
	order.Finished = true
	db.On("CloseOrder", mock.Anything, "5", order.OrderID).Return(order, true, nil)
	kafka.On("PublishOrderClosed", *order).Return(nil)
	feed.On("EmitOrderClosed", *order).Return()

	err := manager.CloseOrder(context.Background(), "5", order.OrderID)
	require.NoError(t, err)
	kafka.AssertExpectations(t)
	feed.AssertExpectations(t)
}

func TestCloseOrder_NoEventsWhenAlreadyFinished(t *testing.T) {
	db := new(MockDBLayer)
	lock := new(MockTableLock)
	kafka := new(MockKafkaPublisher)
	feed := new(MockFeedEmitter)
	manager := newTestManager(t, db, lock, kafka, feed)

	order := testOrder("6")
	order.Finished = true
	db.On("CloseOrder", mock.Anything, "6", order.OrderID).Return(order, false, nil)

	err := manager.CloseOrder(context.Background(), "6", order.OrderID)
	require.NoError(t, err)
	kafka.AssertNotCalled(t, "PublishOrderClosed", mock.Anything)
	feed.AssertNotCalled(t, "EmitOrderClosed", mock.Anything)
}

func TestCloseOrder_NotFound(t *testing.T) {
	db := new(MockDBLayer)
	lock := new(MockTableLock)
	kafka := new(MockKafkaPublisher)
	feed := new(MockFeedEmitter)
	manager := newTestManager(t, db, lock, kafka, feed)

	db.On("CloseOrder", mock.Anything, "1", "missing").Return(nil, false, session.ErrOrderNotFound)

	err := manager.CloseOrder(context.Background(), "1", "missing")
	assert.ErrorIs(t, err, session.ErrOrderNotFound)
}
